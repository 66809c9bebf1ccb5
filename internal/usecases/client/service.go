package client

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/analytics-dashboard-api/internal/config"
	"github.com/vfg2006/analytics-dashboard-api/internal/domain"
	"github.com/vfg2006/analytics-dashboard-api/pkg/apiErrors"
	"github.com/vfg2006/analytics-dashboard-api/pkg/utils"
)

// Backfiller dispara o backfill histórico de um cliente recém-cadastrado
type Backfiller interface {
	BackfillClientData(clientID int, startDate, endDate time.Time) (*domain.BackfillSummary, error)
}

type ClientService interface {
	RegisterClient(request *domain.CreateClientRequest) (*domain.Client, error)
	GetClient(clientID int) (*domain.Client, error)
	ListClients(onlyActive bool) ([]*domain.Client, error)
	UpdateClient(request *domain.UpdateClientRequest) error
	DeactivateClient(clientID int) error
	DeleteClient(clientID int) error
}

type Service struct {
	clientRepository repository.ClientRepository
	analytics        ga4.Integrator
	backfiller       Backfiller
	cfg              *config.Config
}

func NewService(
	clientRepository repository.ClientRepository,
	analytics ga4.Integrator,
	backfiller Backfiller,
	cfg *config.Config,
) ClientService {
	return &Service{
		clientRepository: clientRepository,
		analytics:        analytics,
		backfiller:       backfiller,
		cfg:              cfg,
	}
}

// RegisterClient cadastra um novo cliente. Antes de gravar, valida que a
// credencial configurada tem acesso de leitura à propriedade GA4 informada;
// sem acesso, o cadastro é recusado. Após o cadastro, o histórico inicial é
// preenchido em segundo plano.
func (s *Service) RegisterClient(request *domain.CreateClientRequest) (*domain.Client, error) {
	if request.Name == "" {
		return nil, NewClientError(ErrNameRequired, apiErrors.ErrMissingRequiredData, "Nome do cliente é obrigatório")
	}

	if request.PropertyID == "" {
		return nil, NewClientError(ErrPropertyIDRequired, apiErrors.ErrMissingRequiredData, "Propriedade GA4 é obrigatória")
	}

	hasAccess, err := s.analytics.ValidatePropertyAccess(request.PropertyID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"property_id": request.PropertyID,
			"error":       err.Error(),
		}).Error("Erro ao validar acesso à propriedade GA4")
		return nil, NewClientErrorWithProperty(ErrPropertyCheckFailed, apiErrors.ErrExternalService, request.PropertyID, "Falha ao validar acesso à propriedade no GA4")
	}

	if !hasAccess {
		return nil, NewClientErrorWithProperty(ErrPropertyAccessDenied, apiErrors.ErrPropertyAccessDenied, request.PropertyID, "Credencial configurada não tem acesso de leitura à propriedade")
	}

	timezone := request.Timezone
	if timezone == "" {
		timezone = "America/Sao_Paulo"
	}

	created, err := s.clientRepository.Create(&domain.Client{
		Name:       request.Name,
		PropertyID: request.PropertyID,
		Timezone:   timezone,
	})
	if err != nil {
		if err == repository.ErrPropertyAlreadyRegistered {
			return nil, NewClientErrorWithProperty(ErrPropertyAlreadyTaken, apiErrors.ErrClientAlreadyExists, request.PropertyID, "Propriedade já cadastrada para outro cliente")
		}
		return nil, NewClientError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, "Falha ao cadastrar cliente no banco de dados")
	}

	s.startInitialBackfill(created)

	return created, nil
}

// startInitialBackfill preenche o histórico recente do cliente em segundo
// plano. Falhas são apenas registradas: o cadastro em si já foi concluído.
func (s *Service) startInitialBackfill(client *domain.Client) {
	days := s.cfg.DailyMetricsSync.InitialBackfillDays
	if s.backfiller == nil || days <= 0 {
		return
	}

	end := utils.TruncateToDay(time.Now().AddDate(0, 0, -1))
	start := end.AddDate(0, 0, -(days - 1))

	logrus.WithFields(logrus.Fields{
		"client_id":  client.ID,
		"start_date": start.Format(time.DateOnly),
		"end_date":   end.Format(time.DateOnly),
	}).Info("Iniciando backfill inicial do cliente em segundo plano")

	go func() {
		summary, err := s.backfiller.BackfillClientData(client.ID, start, end)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"client_id": client.ID,
				"error":     err.Error(),
			}).Error("Erro no backfill inicial do cliente")
			return
		}

		logrus.WithFields(logrus.Fields{
			"client_id": client.ID,
			"batch_id":  summary.BatchID,
			"success":   summary.SuccessCount,
			"failures":  summary.FailureCount,
		}).Info("Backfill inicial do cliente concluído")
	}()
}

func (s *Service) GetClient(clientID int) (*domain.Client, error) {
	client, err := s.clientRepository.GetByID(clientID)
	if err != nil {
		return nil, NewClientError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, "Falha ao buscar cliente no banco de dados")
	}

	if client == nil {
		return nil, NewClientError(ErrClientNotFound, apiErrors.ErrClientNotFound, "Cliente não encontrado")
	}

	return client, nil
}

func (s *Service) ListClients(onlyActive bool) ([]*domain.Client, error) {
	clients, err := s.clientRepository.ListClients(onlyActive)
	if err != nil {
		return nil, NewClientError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, "Falha ao listar clientes no banco de dados")
	}

	return clients, nil
}

func (s *Service) UpdateClient(request *domain.UpdateClientRequest) error {
	if _, err := s.GetClient(request.ID); err != nil {
		return err
	}

	if err := s.clientRepository.Update(request); err != nil {
		return NewClientError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, "Falha ao atualizar cliente no banco de dados")
	}

	return nil
}

// DeactivateClient marca o cliente como inativo, retirando-o do roster de
// sincronização sem perder o histórico já coletado.
func (s *Service) DeactivateClient(clientID int) error {
	if _, err := s.GetClient(clientID); err != nil {
		return err
	}

	if err := s.clientRepository.Deactivate(clientID); err != nil {
		return NewClientError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, "Falha ao desativar cliente no banco de dados")
	}

	return nil
}

func (s *Service) DeleteClient(clientID int) error {
	if _, err := s.GetClient(clientID); err != nil {
		return err
	}

	if err := s.clientRepository.Delete(clientID); err != nil {
		return NewClientError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, "Falha ao excluir cliente no banco de dados")
	}

	return nil
}

package client

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ga4mocks "github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/mocks"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/repository"
	repomocks "github.com/vfg2006/analytics-dashboard-api/infrastructure/repository/mocks"
	"github.com/vfg2006/analytics-dashboard-api/internal/config"
	"github.com/vfg2006/analytics-dashboard-api/internal/domain"
	"github.com/vfg2006/analytics-dashboard-api/pkg/apiErrors"
	"go.uber.org/mock/gomock"
)

// stubBackfiller registra a janela recebida e sinaliza a conclusão
type stubBackfiller struct {
	done    chan struct{}
	lastID  int
	start   time.Time
	end     time.Time
	summary *domain.BackfillSummary
}

func (s *stubBackfiller) BackfillClientData(clientID int, startDate, endDate time.Time) (*domain.BackfillSummary, error) {
	s.lastID = clientID
	s.start = startDate
	s.end = endDate
	defer close(s.done)
	return s.summary, nil
}

func TestRegisterClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clientRepo := repomocks.NewMockClientRepository(ctrl)
	analytics := ga4mocks.NewMockIntegrator(ctrl)

	analytics.EXPECT().ValidatePropertyAccess("123456").Return(true, nil)
	clientRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(c *domain.Client) (*domain.Client, error) {
		assert.Equal(t, "Loja Centro", c.Name)
		assert.Equal(t, "123456", c.PropertyID)
		assert.Equal(t, "America/Sao_Paulo", c.Timezone)

		created := *c
		created.ID = 7
		return &created, nil
	})

	backfiller := &stubBackfiller{
		done:    make(chan struct{}),
		summary: &domain.BackfillSummary{BatchID: "abc123"},
	}

	cfg := &config.Config{
		DailyMetricsSync: config.DailyMetricsSync{InitialBackfillDays: 7},
	}

	service := NewService(clientRepo, analytics, backfiller, cfg)

	created, err := service.RegisterClient(&domain.CreateClientRequest{
		Name:       "Loja Centro",
		PropertyID: "123456",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 7, created.ID)

	// O backfill inicial roda em segundo plano após o cadastro
	select {
	case <-backfiller.done:
	case <-time.After(2 * time.Second):
		t.Fatal("backfill inicial não foi disparado")
	}

	assert.Equal(t, 7, backfiller.lastID)
	assert.Equal(t, 6, int(backfiller.end.Sub(backfiller.start).Hours()/24))
}

func TestRegisterClient_CamposObrigatorios(t *testing.T) {
	tests := []struct {
		name    string
		request *domain.CreateClientRequest
		wantErr error
	}{
		{
			name:    "nome ausente",
			request: &domain.CreateClientRequest{PropertyID: "123456"},
			wantErr: ErrNameRequired,
		},
		{
			name:    "propriedade ausente",
			request: &domain.CreateClientRequest{Name: "Loja Centro"},
			wantErr: ErrPropertyIDRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			clientRepo := repomocks.NewMockClientRepository(ctrl)
			analytics := ga4mocks.NewMockIntegrator(ctrl)

			service := NewService(clientRepo, analytics, nil, &config.Config{})

			created, err := service.RegisterClient(tt.request)
			assert.Nil(t, created)
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}
}

func TestRegisterClient_AcessoNegadoAPropriedade(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clientRepo := repomocks.NewMockClientRepository(ctrl)
	analytics := ga4mocks.NewMockIntegrator(ctrl)

	analytics.EXPECT().ValidatePropertyAccess("123456").Return(false, nil)

	service := NewService(clientRepo, analytics, nil, &config.Config{})

	created, err := service.RegisterClient(&domain.CreateClientRequest{
		Name:       "Loja Centro",
		PropertyID: "123456",
	})
	assert.Nil(t, created)
	assert.True(t, errors.Is(err, ErrPropertyAccessDenied))

	var clientErr *ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, apiErrors.ErrPropertyAccessDenied, clientErr.Code)
	assert.Equal(t, "123456", clientErr.PropertyID)
}

func TestRegisterClient_PropriedadeJaCadastrada(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clientRepo := repomocks.NewMockClientRepository(ctrl)
	analytics := ga4mocks.NewMockIntegrator(ctrl)

	analytics.EXPECT().ValidatePropertyAccess("123456").Return(true, nil)
	clientRepo.EXPECT().Create(gomock.Any()).Return(nil, repository.ErrPropertyAlreadyRegistered)

	service := NewService(clientRepo, analytics, nil, &config.Config{})

	created, err := service.RegisterClient(&domain.CreateClientRequest{
		Name:       "Loja Centro",
		PropertyID: "123456",
	})
	assert.Nil(t, created)
	assert.True(t, errors.Is(err, ErrPropertyAlreadyTaken))
}

func TestGetClient_NaoEncontrado(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clientRepo := repomocks.NewMockClientRepository(ctrl)
	analytics := ga4mocks.NewMockIntegrator(ctrl)

	clientRepo.EXPECT().GetByID(42).Return(nil, nil)

	service := NewService(clientRepo, analytics, nil, &config.Config{})

	client, err := service.GetClient(42)
	assert.Nil(t, client)
	assert.True(t, errors.Is(err, ErrClientNotFound))
}

func TestDeactivateClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clientRepo := repomocks.NewMockClientRepository(ctrl)
	analytics := ga4mocks.NewMockIntegrator(ctrl)

	clientRepo.EXPECT().GetByID(7).Return(&domain.Client{ID: 7, Name: "Loja Centro"}, nil)
	clientRepo.EXPECT().Deactivate(7).Return(nil)

	service := NewService(clientRepo, analytics, nil, &config.Config{})

	err := service.DeactivateClient(7)
	assert.NoError(t, err)
}

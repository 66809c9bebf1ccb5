package handler

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/analytics-dashboard-api/internal/domain"
	"github.com/vfg2006/analytics-dashboard-api/internal/usecases/client"
	"github.com/vfg2006/analytics-dashboard-api/pkg/apiErrors"
)

// RegisterClient cadastra um novo cliente com sua propriedade GA4
func RegisterClient(service client.ClientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - RegisterClient")

		var req domain.CreateClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		created, err := service.RegisterClient(&req)
		if err != nil {
			handleClientError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

// ListClients lista os clientes cadastrados. Com ?active=true retorna apenas
// os clientes ativos (o roster de sincronização).
func ListClients(service client.ClientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		onlyActive := r.URL.Query().Get("active") == "true"

		clients, err := service.ListClients(onlyActive)
		if err != nil {
			handleClientError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(clients)
	}
}

func GetClient(service client.ClientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := clientIDFromRequest(w, r)
		if !ok {
			return
		}

		found, err := service.GetClient(clientID)
		if err != nil {
			handleClientError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(found)
	}
}

func UpdateClient(service client.ClientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := clientIDFromRequest(w, r)
		if !ok {
			return
		}

		var req domain.UpdateClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}
		req.ID = clientID

		if err := service.UpdateClient(&req); err != nil {
			handleClientError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
	}
}

// DeactivateClient desativa o cliente, retirando-o do roster de sincronização
func DeactivateClient(service client.ClientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := clientIDFromRequest(w, r)
		if !ok {
			return
		}

		if err := service.DeactivateClient(clientID); err != nil {
			handleClientError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
	}
}

// DeleteClient remove o cliente permanentemente, junto com suas métricas
func DeleteClient(service client.ClientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := clientIDFromRequest(w, r)
		if !ok {
			return
		}

		if err := service.DeleteClient(clientID); err != nil {
			handleClientError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// clientIDFromRequest extrai e valida o ID do cliente presente na URL
func clientIDFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	clientIDStr := httprouter.ParamsFromContext(r.Context()).ByName("id")
	if clientIDStr == "" {
		apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "ID do cliente não fornecido", nil)
		return 0, false
	}

	clientID, err := strconv.Atoi(clientIDStr)
	if err != nil {
		apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "ID do cliente inválido", nil)
		return 0, false
	}

	return clientID, true
}

// handleClientError mapeia erros do contexto de clientes para a resposta da API
func handleClientError(w http.ResponseWriter, err error) {
	logrus.Error(err)

	var clientErr *client.ClientError
	if errors.As(err, &clientErr) {
		apiErrors.WriteError(w, clientErr.Code, clientErr.Error(), map[string]any{
			"property_id": clientErr.PropertyID,
		})
		return
	}

	apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro interno ao processar cliente", nil)
}

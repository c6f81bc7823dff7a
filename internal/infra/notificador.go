package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// MensajePayload is sent to the notification sidecar, which talks to the
// WhatsApp/SMS provider. The sidecar owns provider credentials and retries
// at the transport level; this client stays dumb on purpose.
type MensajePayload struct {
	Telefono string `json:"telefono"`
	Mensaje  string `json:"mensaje"`
}

type mensajeResponse struct {
	Enviado bool   `json:"enviado"`
	Detalle string `json:"detalle"`
}

// Notificador is an HTTP client for the notification sidecar.
type Notificador struct {
	baseURL    string
	httpClient *http.Client
}

func NewNotificador(baseURL string) *Notificador {
	return &Notificador{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// EnviarMensaje POSTs one message to the sidecar.
func (n *Notificador) EnviarMensaje(ctx context.Context, payload MensajePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notificador: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/mensajes", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notificador: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notificador: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notificador: unexpected status %d", resp.StatusCode)
	}

	var mr mensajeResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return fmt.Errorf("notificador: decode response: %w", err)
	}
	if !mr.Enviado {
		return fmt.Errorf("notificador: rechazado: %s", mr.Detalle)
	}
	return nil
}

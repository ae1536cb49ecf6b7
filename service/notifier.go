package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"pgstay/domain"
)

// Notifier pushes events to the external notification collaborator. Delivery
// is wrapped in a circuit breaker so a down collaborator cannot slow the
// write path.
type Notifier struct {
	endpoint string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker
	logger   *logrus.Logger
}

func NewNotifier(host, port string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		endpoint: fmt.Sprintf("http://%s:%s/", host, port),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		cb:     CircuitBreaker("notifier"),
		logger: logger,
	}
}

type notification struct {
	ForHostID   string `json:"forHostId"`
	ByGuestID   string `json:"byGuestId"`
	Description string `json:"description"`
}

func (n *Notifier) VisitConfirmed(ctx context.Context, visit *domain.Visit) error {
	payload := notification{
		ForHostID:   visit.LandlordID,
		ByGuestID:   visit.UserID,
		Description: fmt.Sprintf("Visit for property %s confirmed for %s", visit.PropertyID, visit.VisitDate.Format(time.RFC3339)),
	}
	_, err := n.cb.Execute(func() (interface{}, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		request, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		request.Header.Set("Content-Type", "application/json")
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(request.Header))

		response, err := n.client.Do(request)
		if err != nil {
			return nil, err
		}
		defer response.Body.Close()
		if response.StatusCode >= 300 {
			return nil, fmt.Errorf("notification service returned status %d", response.StatusCode)
		}
		return nil, nil
	})
	return err
}

func CircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(
		gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			Interval:    0,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logrus.Infof("Circuit Breaker '%s' changed from '%s' to '%s'", name, from, to)
			},
		},
	)
}

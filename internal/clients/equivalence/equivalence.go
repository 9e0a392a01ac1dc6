// Package equivalence: HTTP-клиент внешнего сервиса эквивалентов.
package equivalence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"catalog-service/internal/catalog/model"
)

const lookupPath = "/equivalences/lookup"

type lookupRequest struct {
	Model string  `json:"model"`
	Price float64 `json:"price"`
}

type lookupResponse struct {
	MatchedModel   string  `json:"matchedModel"`
	ReferencePrice float64 `json:"referencePrice"`
	Category       string  `json:"category"`
	Available      bool    `json:"available"`
}

// Client реализует service.EquivalenceLookup. Один вызов на строку, поэтому
// запросы идут через общий лимитер.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func New(baseURL string, rps float64, timeout time.Duration) *Client {
	if rps <= 0 {
		rps = 5
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *Client) Lookup(ctx context.Context, modelID string, price float64) (model.Equivalence, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.NoMatch(), err
	}

	body, err := json.Marshal(lookupRequest{Model: modelID, Price: price})
	if err != nil {
		return model.NoMatch(), err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+lookupPath, bytes.NewReader(body))
	if err != nil {
		return model.NoMatch(), err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.NoMatch(), fmt.Errorf("equivalence lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return model.NoMatch(), nil
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.NoMatch(), fmt.Errorf("equivalence lookup: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.NoMatch(), fmt.Errorf("decode equivalence: %w", err)
	}
	if out.MatchedModel == "" && out.ReferencePrice <= 0 {
		return model.NoMatch(), nil
	}
	return model.Equivalence{
		Found:          true,
		MatchedModel:   out.MatchedModel,
		ReferencePrice: out.ReferencePrice,
		Category:       out.Category,
		Available:      out.Available,
	}, nil
}

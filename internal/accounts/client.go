// Package accounts resolves anonymous player fingerprints to stable
// identities through the game's account service, backed by the persisted
// accounts table so repeated runs do not re-query the service.
package accounts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"ladder-tracker/internal/config"
	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/miniyaml"
)

// Client queries the account service for one fingerprint at a time.
type Client struct {
	baseURL string
	client  *fasthttp.Client
	timeout time.Duration
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.AccountAPIBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		timeout: 10 * time.Second,
	}
}

// Fetch returns the profile behind a fingerprint. Any transport failure,
// service error, or fingerprint mismatch is returned as an error; callers
// treat all of them as a miss.
func (c *Client) Fetch(ctx context.Context, fingerprint string) (domain.Account, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/%s", c.baseURL, fingerprint))
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return domain.Account{}, fmt.Errorf("account service request: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return domain.Account{}, fmt.Errorf("account service status %d", resp.StatusCode())
	}

	return parseProfile(fingerprint, resp.Body())
}

func parseProfile(fingerprint string, body []byte) (domain.Account, error) {
	if len(body) == 0 {
		return domain.Account{}, fmt.Errorf("empty profile document")
	}
	nodes, err := miniyaml.Parse(body)
	if err != nil {
		return domain.Account{}, fmt.Errorf("parse profile: %w", err)
	}
	if errNode := miniyaml.Root(nodes, "Error"); errNode != nil {
		return domain.Account{}, fmt.Errorf("account service error: %s", errNode.Value)
	}
	player := miniyaml.Root(nodes, "Player")
	if player == nil {
		return domain.Account{}, fmt.Errorf("profile document has no Player block")
	}
	if fp := player.Get("Fingerprint"); fp != fingerprint {
		return domain.Account{}, fmt.Errorf("fingerprint mismatch: %s != %s", fp, fingerprint)
	}
	profileID, err := strconv.ParseInt(player.Get("ProfileID"), 10, 64)
	if err != nil {
		return domain.Account{}, fmt.Errorf("bad ProfileID: %w", err)
	}

	avatarURL := ""
	if avatar := player.Child("Avatar"); avatar != nil {
		avatarURL = avatar.Get("Src")
	}

	return domain.Account{
		Fingerprint: fingerprint,
		ProfileID:   profileID,
		ProfileName: player.Get("ProfileName"),
		AvatarURL:   avatarURL,
	}, nil
}

package proxy

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/ent0n29/ayanamist/internal/dispatch"
	"github.com/ent0n29/ayanamist/internal/logging"
	"github.com/ent0n29/ayanamist/internal/observability"
	"github.com/ent0n29/ayanamist/internal/platform"
)

const (
	amountMin = 1
	amountMax = 50

	colorWorking = 0x1F8B4C
	colorBroken  = 0xE74C3C
)

// Messenger is the slice of the platform client the proxy commands need.
type Messenger interface {
	dispatch.Responder
	CreateFollowupMessage(ctx context.Context, applicationID, token string, msg platform.MessageCreate) (*platform.Message, error)
	ChannelMessage(ctx context.Context, channelID, messageID string) (*platform.Message, error)
}

// Checker fetches and verifies proxies.
type Checker interface {
	Fetch(ctx context.Context) ([]Proxy, error)
	Check(ctx context.Context, proxies []Proxy) ([]CheckResult, error)
}

// Handler serves the proxy slash commands and their download buttons.
type Handler struct {
	client  Messenger
	checker Checker
	metrics *observability.Metrics

	applicationID string
}

func NewHandler(client Messenger, checker Checker, metrics *observability.Metrics, applicationID string) *Handler {
	return &Handler{
		client:        client,
		checker:       checker,
		metrics:       metrics,
		applicationID: applicationID,
	}
}

// HandleProxy scrapes random proxies, checks them, and posts the working set
// with a download button.
func (h *Handler) HandleProxy(ctx context.Context, ic *platform.Interaction) error {
	amount := 1
	if v, ok := ic.OptionInt("amount"); ok {
		amount = v
	}
	if amount < amountMin || amount > amountMax {
		return dispatch.RespondEphemeral(ctx, h.client, ic,
			fmt.Sprintf("取得する個数は%d以上%d以下である必要があります", amountMin, amountMax))
	}

	if err := dispatch.Respond(ctx, h.client, ic, platform.InteractionResponse{
		Type: platform.ResponseDeferredMessage,
	}); err != nil {
		return err
	}

	proxies, err := h.checker.Fetch(ctx)
	if err != nil {
		logging.With("proxy").Error().Err(err).Msg("fetch proxy list failed")
		return h.followupText(ctx, ic, "プロキシの取得に失敗しました")
	}
	rand.Shuffle(len(proxies), func(i, j int) {
		proxies[i], proxies[j] = proxies[j], proxies[i]
	})
	if len(proxies) > amount {
		proxies = proxies[:amount]
	}

	results, err := h.checker.Check(ctx, proxies)
	if err != nil {
		logging.With("proxy").Warn().Err(err).Msg("proxy check failed")
		return h.followupText(ctx, ic, "プロキシのチェックに失敗しました")
	}

	var lines []string
	for _, r := range results {
		if !r.Working {
			h.metrics.IncProxyCheck("broken")
			continue
		}
		h.metrics.IncProxyCheck("working")
		typ := string(r.Type)
		if typ == "" {
			typ = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("%s:%s | %s", r.IP, r.Port, typ))
	}

	_, err = h.client.CreateFollowupMessage(ctx, h.applicationID, ic.Token, platform.MessageCreate{
		Embeds: []platform.Embed{{
			Title:       "Proxy Scraper",
			Color:       colorWorking,
			Description: strings.Join(lines, "\n"),
		}},
		Components: platform.ButtonRow(platform.Button{
			Type:     platform.ComponentButton,
			Style:    platform.ButtonSecondary,
			Label:    "Download",
			CustomID: "proxy:download_start",
		}),
	})
	return err
}

// HandleProxyCheck checks a single user-supplied ip:port address.
func (h *Handler) HandleProxyCheck(ctx context.Context, ic *platform.Interaction) error {
	addr := ic.OptionString("proxy")
	ip, port, ok := strings.Cut(addr, ":")
	if !ok || ip == "" || port == "" {
		return dispatch.RespondEphemeral(ctx, h.client, ic, "ip:portの形式で記述してください")
	}

	if err := dispatch.Respond(ctx, h.client, ic, platform.InteractionResponse{
		Type: platform.ResponseDeferredMessage,
	}); err != nil {
		return err
	}

	results, err := h.checker.Check(ctx, []Proxy{{IP: ip, Port: port}})
	if err != nil || len(results) == 0 {
		logging.With("proxy").Error().Err(err).Str("addr", addr).Msg("proxy check failed")
		return h.followupText(ctx, ic, "プロキシのチェックに失敗しました")
	}
	result := results[0]

	status, color := "Not Working", colorBroken
	if result.Working {
		status, color = "Working", colorWorking
		h.metrics.IncProxyCheck("working")
	} else {
		h.metrics.IncProxyCheck("broken")
	}
	typ := string(result.Type)
	if typ == "" {
		typ = "Unknown"
	}
	country := "Unknown"
	if result.Country != "" {
		country = fmt.Sprintf(":flag_%s:", strings.ToLower(string(result.Country)))
	}

	_, err = h.client.CreateFollowupMessage(ctx, h.applicationID, ic.Token, platform.MessageCreate{
		Embeds: []platform.Embed{{
			Title: "Proxy Checker",
			Color: color,
			Fields: []platform.EmbedField{
				{Name: "Status", Value: status},
				{Name: "Type", Value: typ, Inline: true},
				{Name: "Country", Value: country, Inline: true},
			},
		}},
	})
	return err
}

func (h *Handler) followupText(ctx context.Context, ic *platform.Interaction, content string) error {
	_, err := h.client.CreateFollowupMessage(ctx, h.applicationID, ic.Token, platform.MessageCreate{Content: content})
	return err
}

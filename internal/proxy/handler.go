package proxy

import (
	"context"
	"regexp"
	"strings"

	"github.com/ent0n29/ayanamist/internal/dispatch"
	"github.com/ent0n29/ayanamist/internal/logging"
	"github.com/ent0n29/ayanamist/internal/platform"
)

const missingProxiesNotice = "このダウンロードに関連付けられたプロキシが取得できません"

// embedProxySep splits "ip:port | type" embed lines.
var embedProxySep = regexp.MustCompile(`\s*\|\s*`)

var downloadKinds = []struct {
	id    string
	label string
}{
	{"all", "All"},
	{"http", "HTTP(s)"},
	{"socks4", "Socks4"},
	{"socks5", "Socks5"},
	{"scheme", "All (+Scheme)"},
}

type proxyInfo struct {
	addr string
	typ  string
}

// readEmbedProxies recovers the proxy list from a scraper embed. The embed is
// the source of truth so downloads keep working after a restart.
func readEmbedProxies(m *platform.Message) []proxyInfo {
	if m == nil || len(m.Embeds) == 0 {
		return nil
	}
	var proxies []proxyInfo
	for _, line := range strings.Split(m.Embeds[0].Description, "\n") {
		parts := embedProxySep.Split(line, -1)
		switch {
		case len(parts) > 2:
			proxies = append(proxies, proxyInfo{addr: parts[0], typ: parts[2]})
		case len(parts) == 2:
			proxies = append(proxies, proxyInfo{addr: parts[0], typ: parts[1]})
		}
	}
	return proxies
}

// HandleComponent routes the download buttons. The id is the custom id with
// its namespace prefix already removed.
func (h *Handler) HandleComponent(ctx context.Context, ic *platform.Interaction, id string) error {
	switch {
	case id == "download_start":
		return h.onDownloadStart(ctx, ic)
	case strings.HasPrefix(id, "download:"):
		return h.onDownload(ctx, ic, strings.TrimPrefix(id, "download:"))
	default:
		logging.With("proxy").Warn().Str("component_id", id).Msg("unknown component dropped")
		return nil
	}
}

func (h *Handler) onDownloadStart(ctx context.Context, ic *platform.Interaction) error {
	if len(readEmbedProxies(ic.Message)) == 0 {
		return dispatch.RespondEphemeral(ctx, h.client, ic, missingProxiesNotice)
	}

	buttons := make([]platform.Button, 0, len(downloadKinds))
	for _, k := range downloadKinds {
		buttons = append(buttons, platform.Button{
			Type:     platform.ComponentButton,
			Style:    platform.ButtonSecondary,
			Label:    k.label,
			CustomID: "proxy:download:" + k.id,
		})
	}
	return dispatch.Respond(ctx, h.client, ic, platform.InteractionResponse{
		Type: platform.ResponseChannelMessage,
		Data: &platform.ResponseData{
			Content:    "Choose Download Type",
			Flags:      platform.FlagEphemeral,
			Components: platform.ButtonRow(buttons...),
		},
	})
}

func (h *Handler) onDownload(ctx context.Context, ic *platform.Interaction, kind string) error {
	// The type picker is ephemeral; its reference points back at the scraper
	// embed holding the actual list.
	if ic.Message == nil || ic.Message.MessageReference == nil || ic.Message.MessageReference.MessageID == "" {
		return dispatch.RespondEphemeral(ctx, h.client, ic, missingProxiesNotice)
	}
	source, err := h.client.ChannelMessage(ctx, ic.ChannelID, ic.Message.MessageReference.MessageID)
	if err != nil {
		logging.With("proxy").Error().Err(err).Msg("fetch scraper message failed")
		return dispatch.RespondEphemeral(ctx, h.client, ic, missingProxiesNotice)
	}
	proxies := readEmbedProxies(source)
	if len(proxies) == 0 {
		return dispatch.RespondEphemeral(ctx, h.client, ic, missingProxiesNotice)
	}

	var lines []string
	switch kind {
	case "http", "socks4", "socks5":
		for _, p := range proxies {
			if strings.EqualFold(p.typ, kind) {
				lines = append(lines, p.addr)
			}
		}
	case "scheme":
		for _, p := range proxies {
			lines = append(lines, strings.ToLower(p.typ)+"://"+p.addr)
		}
	default:
		for _, p := range proxies {
			lines = append(lines, p.addr)
		}
	}

	return dispatch.Respond(ctx, h.client, ic, platform.InteractionResponse{
		Type: platform.ResponseChannelMessage,
		Data: &platform.ResponseData{
			Content: "Complete",
			Flags:   platform.FlagEphemeral,
			Files:   []platform.File{{Name: "proxies.txt", Contents: []byte(strings.Join(lines, "\n"))}},
		},
	})
}

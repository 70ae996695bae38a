package proxy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ent0n29/ayanamist/internal/platform"
)

type fakeProxyClient struct {
	responses []platform.InteractionResponse
	followups []platform.MessageCreate
	source    *platform.Message
	sourceErr error
}

func (c *fakeProxyClient) CreateInteractionResponse(_ context.Context, _, _ string, resp platform.InteractionResponse) error {
	c.responses = append(c.responses, resp)
	return nil
}

func (c *fakeProxyClient) CreateFollowupMessage(_ context.Context, _, _ string, msg platform.MessageCreate) (*platform.Message, error) {
	c.followups = append(c.followups, msg)
	return &platform.Message{ID: "followup"}, nil
}

func (c *fakeProxyClient) ChannelMessage(_ context.Context, _, _ string) (*platform.Message, error) {
	return c.source, c.sourceErr
}

type fakeChecker struct {
	proxies  []Proxy
	fetchErr error
	results  []CheckResult
	checkErr error
	checked  []Proxy
}

func (f *fakeChecker) Fetch(context.Context) ([]Proxy, error) {
	return f.proxies, f.fetchErr
}

func (f *fakeChecker) Check(_ context.Context, proxies []Proxy) ([]CheckResult, error) {
	f.checked = proxies
	return f.results, f.checkErr
}

func commandInteraction(name string, options ...platform.CommandOption) *platform.Interaction {
	return &platform.Interaction{
		ID:        "ic1",
		Type:      platform.InteractionCommand,
		Token:     "tok",
		ChannelID: "chan",
		Data:      &platform.InteractionData{Name: name, Options: options},
	}
}

func componentInteraction(customID string, msg *platform.Message) *platform.Interaction {
	return &platform.Interaction{
		ID:        "ic2",
		Type:      platform.InteractionMessageComponent,
		Token:     "tok",
		ChannelID: "chan",
		Message:   msg,
		Data:      &platform.InteractionData{CustomID: customID},
	}
}

func scraperMessage(lines ...string) *platform.Message {
	return &platform.Message{
		ID: "scraper",
		Embeds: []platform.Embed{{
			Title:       "Proxy Scraper",
			Description: strings.Join(lines, "\n"),
		}},
	}
}

func TestHandleProxyPostsWorkingSet(t *testing.T) {
	client := &fakeProxyClient{}
	checker := &fakeChecker{
		proxies: []Proxy{{IP: "1.2.3.4", Port: "80"}, {IP: "5.6.7.8", Port: "81"}},
		results: []CheckResult{
			{Working: true, IP: "1.2.3.4", Port: "80", Type: "http"},
			{Working: false, IP: "5.6.7.8", Port: "81"},
		},
	}
	h := NewHandler(client, checker, nil, "app")

	amount := float64(2)
	err := h.HandleProxy(context.Background(), commandInteraction("proxy",
		platform.CommandOption{Name: "amount", Value: amount}))
	if err != nil {
		t.Fatalf("HandleProxy() error = %v", err)
	}

	if len(client.responses) != 1 || client.responses[0].Type != platform.ResponseDeferredMessage {
		t.Fatalf("expected one deferred acknowledgement, got %+v", client.responses)
	}
	if len(client.followups) != 1 {
		t.Fatalf("followups = %+v", client.followups)
	}
	msg := client.followups[0]
	if len(msg.Embeds) != 1 {
		t.Fatalf("embeds = %+v", msg.Embeds)
	}
	if msg.Embeds[0].Description != "1.2.3.4:80 | http" {
		t.Fatalf("description = %q", msg.Embeds[0].Description)
	}
	if len(msg.Components) != 1 || msg.Components[0].Components[0].CustomID != "proxy:download_start" {
		t.Fatalf("components = %+v", msg.Components)
	}
	if len(checker.checked) != 2 {
		t.Fatalf("checked %d proxies, want 2", len(checker.checked))
	}
}

func TestHandleProxyRejectsBadAmount(t *testing.T) {
	client := &fakeProxyClient{}
	h := NewHandler(client, &fakeChecker{}, nil, "app")

	err := h.HandleProxy(context.Background(), commandInteraction("proxy",
		platform.CommandOption{Name: "amount", Value: float64(51)}))
	if err != nil {
		t.Fatalf("HandleProxy() error = %v", err)
	}
	if len(client.responses) != 1 {
		t.Fatalf("responses = %+v", client.responses)
	}
	resp := client.responses[0]
	if resp.Type != platform.ResponseChannelMessage || resp.Data.Flags != platform.FlagEphemeral {
		t.Fatalf("rejection should be an ephemeral message, got %+v", resp)
	}
	if !strings.Contains(resp.Data.Content, "1以上50以下") {
		t.Fatalf("rejection = %q", resp.Data.Content)
	}
}

func TestHandleProxyFetchFailure(t *testing.T) {
	client := &fakeProxyClient{}
	h := NewHandler(client, &fakeChecker{fetchErr: errors.New("down")}, nil, "app")

	if err := h.HandleProxy(context.Background(), commandInteraction("proxy")); err != nil {
		t.Fatalf("HandleProxy() error = %v", err)
	}
	if len(client.followups) != 1 || client.followups[0].Content != "プロキシの取得に失敗しました" {
		t.Fatalf("followups = %+v", client.followups)
	}
}

func TestHandleProxyCheckEmbed(t *testing.T) {
	client := &fakeProxyClient{}
	checker := &fakeChecker{
		results: []CheckResult{{Working: true, IP: "1.2.3.4", Port: "80", Type: "socks5", Country: "JP"}},
	}
	h := NewHandler(client, checker, nil, "app")

	err := h.HandleProxyCheck(context.Background(), commandInteraction("proxycheck",
		platform.CommandOption{Name: "proxy", Value: "1.2.3.4:80"}))
	if err != nil {
		t.Fatalf("HandleProxyCheck() error = %v", err)
	}

	if len(client.followups) != 1 {
		t.Fatalf("followups = %+v", client.followups)
	}
	embed := client.followups[0].Embeds[0]
	if embed.Title != "Proxy Checker" || embed.Color != colorWorking {
		t.Fatalf("embed = %+v", embed)
	}
	if embed.Fields[0].Value != "Working" || embed.Fields[1].Value != "socks5" || embed.Fields[2].Value != ":flag_jp:" {
		t.Fatalf("fields = %+v", embed.Fields)
	}
}

func TestHandleProxyCheckRejectsMalformedAddress(t *testing.T) {
	client := &fakeProxyClient{}
	h := NewHandler(client, &fakeChecker{}, nil, "app")

	err := h.HandleProxyCheck(context.Background(), commandInteraction("proxycheck",
		platform.CommandOption{Name: "proxy", Value: "no-port-here"}))
	if err != nil {
		t.Fatalf("HandleProxyCheck() error = %v", err)
	}
	if len(client.responses) != 1 || client.responses[0].Data.Content != "ip:portの形式で記述してください" {
		t.Fatalf("responses = %+v", client.responses)
	}
}

func TestDownloadStartOffersKinds(t *testing.T) {
	client := &fakeProxyClient{}
	h := NewHandler(client, &fakeChecker{}, nil, "app")

	ic := componentInteraction("proxy:download_start", scraperMessage("1.2.3.4:80 | http"))
	if err := h.HandleComponent(context.Background(), ic, "download_start"); err != nil {
		t.Fatalf("HandleComponent() error = %v", err)
	}

	resp := client.responses[0]
	if resp.Data.Content != "Choose Download Type" || resp.Data.Flags != platform.FlagEphemeral {
		t.Fatalf("response = %+v", resp.Data)
	}
	buttons := resp.Data.Components[0].Components
	if len(buttons) != 5 {
		t.Fatalf("offered %d kinds, want 5", len(buttons))
	}
	if buttons[0].CustomID != "proxy:download:all" || buttons[4].CustomID != "proxy:download:scheme" {
		t.Fatalf("buttons = %+v", buttons)
	}
}

func TestDownloadStartWithoutEmbed(t *testing.T) {
	client := &fakeProxyClient{}
	h := NewHandler(client, &fakeChecker{}, nil, "app")

	ic := componentInteraction("proxy:download_start", &platform.Message{ID: "bare"})
	if err := h.HandleComponent(context.Background(), ic, "download_start"); err != nil {
		t.Fatalf("HandleComponent() error = %v", err)
	}
	if client.responses[0].Data.Content != missingProxiesNotice {
		t.Fatalf("response = %q", client.responses[0].Data.Content)
	}
}

func TestDownloadFiltersByKind(t *testing.T) {
	source := scraperMessage(
		"1.2.3.4:80 | http",
		"5.6.7.8:1080 | socks5",
		"9.9.9.9:81 | http",
	)
	picker := &platform.Message{
		ID:               "picker",
		MessageReference: &platform.MessageReference{MessageID: "scraper"},
	}

	cases := []struct {
		kind string
		want string
	}{
		{"http", "1.2.3.4:80\n9.9.9.9:81"},
		{"socks5", "5.6.7.8:1080"},
		{"all", "1.2.3.4:80\n5.6.7.8:1080\n9.9.9.9:81"},
		{"scheme", "http://1.2.3.4:80\nsocks5://5.6.7.8:1080\nhttp://9.9.9.9:81"},
	}
	for _, tc := range cases {
		client := &fakeProxyClient{source: source}
		h := NewHandler(client, &fakeChecker{}, nil, "app")

		ic := componentInteraction("proxy:download:"+tc.kind, picker)
		if err := h.HandleComponent(context.Background(), ic, "download:"+tc.kind); err != nil {
			t.Fatalf("kind %s: HandleComponent() error = %v", tc.kind, err)
		}
		resp := client.responses[0]
		if resp.Data.Content != "Complete" {
			t.Fatalf("kind %s: response = %q", tc.kind, resp.Data.Content)
		}
		if len(resp.Data.Files) != 1 || resp.Data.Files[0].Name != "proxies.txt" {
			t.Fatalf("kind %s: files = %+v", tc.kind, resp.Data.Files)
		}
		if got := string(resp.Data.Files[0].Contents); got != tc.want {
			t.Fatalf("kind %s: contents = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestDownloadWithoutSourceReference(t *testing.T) {
	client := &fakeProxyClient{}
	h := NewHandler(client, &fakeChecker{}, nil, "app")

	ic := componentInteraction("proxy:download:all", &platform.Message{ID: "picker"})
	if err := h.HandleComponent(context.Background(), ic, "download:all"); err != nil {
		t.Fatalf("HandleComponent() error = %v", err)
	}
	if client.responses[0].Data.Content != missingProxiesNotice {
		t.Fatalf("response = %q", client.responses[0].Data.Content)
	}
}

func TestUnknownComponentDropped(t *testing.T) {
	client := &fakeProxyClient{}
	h := NewHandler(client, &fakeChecker{}, nil, "app")

	ic := componentInteraction("proxy:bogus", nil)
	if err := h.HandleComponent(context.Background(), ic, "bogus"); err != nil {
		t.Fatalf("HandleComponent() error = %v", err)
	}
	if len(client.responses) != 0 {
		t.Fatalf("unknown component should be dropped, got %+v", client.responses)
	}
}

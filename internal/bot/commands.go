package bot

import (
	"context"

	"github.com/ent0n29/ayanamist/internal/dispatch"
	"github.com/ent0n29/ayanamist/internal/platform"
)

// Slash-command option types.
const (
	optionString  = 3
	optionInteger = 4
)

const (
	sayakaisVideoURL = "https://cdn.discordapp.com/attachments/921625188444041249/936275774158278737/nicovideo-sm16800638_1082d67867b67a94b934949cb59932b6476495fa1551d86e50c27bd8b7e3e057.mp4"
	djVideoURL       = "https://cdn.discordapp.com/attachments/921625188444041249/936275839262277703/nicovideo-sm22591026_03cce4fa300fcd6dcc40866bc4d6d8ae7ddd8fb11500e74accdbc2516c9a2f32.mp4"
)

// CommandSpecs is the full slash-command set registered on startup.
func CommandSpecs() []platform.ApplicationCommand {
	amountMin, amountMax := 1, 50
	return []platform.ApplicationCommand{
		{Name: "ping", Description: "pong"},
		{Name: "captcha", Description: "認証パネルを設置"},
		{Name: "dareda", Description: "ポケモンのシルエットクイズができます。"},
		{
			Name:        "proxy",
			Description: "ランダムにプロキシを取得して、チェックを行い結果を表示します",
			Options: []platform.CommandOptionSpec{{
				Type:        optionInteger,
				Name:        "amount",
				Description: "取得する個数（1以上50以下）",
				MinValue:    &amountMin,
				MaxValue:    &amountMax,
			}},
		},
		{
			Name:        "proxycheck",
			Description: "チェックを行い結果を表示します",
			Options: []platform.CommandOptionSpec{{
				Type:        optionString,
				Name:        "proxy",
				Description: "チェックしたいプロキシ。ip:portの形式で入力",
				Required:    true,
			}},
		},
		{Name: "dj", Description: "魔法少女まどかマギカのコラ動画を見ることができます"},
		{Name: "sayakais", Description: "魔法少女まどかマギカのコラ動画を見ることができます"},
	}
}

// replyText builds a command handler that answers with a fixed line.
func replyText(r dispatch.Responder, content string) CommandFunc {
	return func(ctx context.Context, ic *platform.Interaction) error {
		return dispatch.Respond(ctx, r, ic, platform.InteractionResponse{
			Type: platform.ResponseChannelMessage,
			Data: &platform.ResponseData{Content: content},
		})
	}
}

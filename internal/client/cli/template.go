package cli

import (
	"fmt"
	"strings"
	"text/template"

	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

const articleTemplate = `
=== {{.Title}} ===
{{- if .PubDate }}
Published: {{.PubDate}}
{{- end}}
{{- if .Creator }}
By:        {{join .Creator ", "}}
{{- end}}
{{- if .Category }}
Category:  {{join .Category ", "}}
{{- end}}
ID:        {{.ArticleID}}
{{ if .Description }}
{{.Description}}
{{ end}}
{{- if .Content }}
{{.Content}}
{{ end}}
{{- if .Link }}
Read more: {{.Link}}
{{- end}}
`

const profileTemplate = `
=== Profile ===

Name:     {{.User.DisplayName}}
Email:    {{.User.Email}}
{{- if .Profile.Phone }}
Phone:    {{.Profile.Phone}}
{{- end}}
{{- if .Profile.Gender }}
Gender:   {{.Profile.Gender}}
{{- end}}
{{- if .Profile.Age }}
Age:      {{.Profile.Age}}
{{- end}}

=== Wallet ===

Available: {{.Wallet.AvailableCoins}} coins
Earned:    {{.Wallet.TotalEarned}} coins
Redeemed:  {{.Wallet.TotalRedeemed}} coins

=== Referral ===

Your code: {{.Referral.MyReferralCode}}
Friends:   {{.Referral.TotalReferrals}}
Invite friends with your code and earn 100 coins for each signup!
`

var templates = template.Must(template.New("cli").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`{{define "article"}}` + articleTemplate + `{{end}}{{define "profile"}}` + profileTemplate + `{{end}}`))

func (c *Cli) render(name string, data any) error {
	if err := templates.ExecuteTemplate(c.io, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

func categoryList() string {
	return strings.Join(pkgapi.Categories, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

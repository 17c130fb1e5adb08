package auth

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// minimal self-contained pages for email action links, used when no
// frontend redirect URL is configured

const pageShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f4f5f7; margin: 0; }
.card { max-width: 420px; margin: 12vh auto; background: #fff; border-radius: 8px; padding: 2rem; box-shadow: 0 1px 4px rgba(0,0,0,.12); text-align: center; }
h1 { font-size: 1.3rem; margin: 0 0 .75rem; }
p { color: #555; line-height: 1.5; }
.ok { color: #2e7d32; }
.err { color: #c62828; }
form { text-align: left; margin-top: 1.25rem; }
label { display: block; font-size: .85rem; color: #555; margin-bottom: .25rem; }
input[type=password] { width: 100%; box-sizing: border-box; padding: .5rem; margin-bottom: 1rem; border: 1px solid #ccc; border-radius: 4px; }
button { width: 100%; padding: .6rem; border: 0; border-radius: 4px; background: #1a73e8; color: #fff; font-size: 1rem; cursor: pointer; }
</style>
</head>
<body>
<div class="card">
{{.Body}}
</div>
</body>
</html>`

var pageTmpl = template.Must(template.New("page").Parse(pageShell))

const verifiedBody = `<h1 class="ok">Email verified</h1>
<p>{{.}} has been verified. You can close this page and sign in.</p>`

const errorBody = `<h1 class="err">Something went wrong</h1>
<p>{{.}}</p>`

const resetFormBody = `<h1>Reset your password</h1>
<p>Choose a new password for {{.Email}}.</p>
<form method="POST" action="reset-password-confirm">
<input type="hidden" name="oob_code" value="{{.OobCode}}">
<label for="new_password">New password</label>
<input type="password" id="new_password" name="new_password" minlength="6" required>
<button type="submit">Set new password</button>
</form>`

const resetSuccessBody = `<h1 class="ok">Password updated</h1>
<p>Your password has been changed. You can close this page and sign in with the new one.</p>`

var (
	verifiedTmpl     = template.Must(template.New("verified").Parse(verifiedBody))
	errorTmpl        = template.Must(template.New("error").Parse(errorBody))
	resetFormTmpl    = template.Must(template.New("resetForm").Parse(resetFormBody))
	resetSuccessTmpl = template.Must(template.New("resetSuccess").Parse(resetSuccessBody))
)

func renderPage(c *gin.Context, status int, title string, body *template.Template, data any) {
	var buf strings.Builder
	if err := body.Execute(&buf, data); err != nil {
		c.String(http.StatusInternalServerError, "page rendering failed")
		return
	}
	inner := template.HTML(buf.String())

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = pageTmpl.Execute(c.Writer, map[string]any{"Title": title, "Body": inner})
}

func renderVerifiedPage(c *gin.Context, email string) {
	renderPage(c, http.StatusOK, "Email verified", verifiedTmpl, email)
}

func renderErrorPage(c *gin.Context, status int, message string) {
	renderPage(c, status, "Error", errorTmpl, message)
}

func renderResetFormPage(c *gin.Context, oobCode, email string) {
	renderPage(c, http.StatusOK, "Reset password", resetFormTmpl, map[string]string{"OobCode": oobCode, "Email": email})
}

func renderResetSuccessPage(c *gin.Context) {
	renderPage(c, http.StatusOK, "Password updated", resetSuccessTmpl, nil)
}

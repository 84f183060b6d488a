package api

import (
	"html/template"
	"net/http"
)

type pageData struct {
	OK        bool
	Title     string
	Msg       string
	Code      string
	Plan      string
	ExpiresAt string
}

var page = template.Must(template.New("outcome").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Toolix {{.Title}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
.code{font-family:monospace;font-size:1.4rem;letter-spacing:1px;padding:12px;background:#f4f4f4;border-radius:8px;user-select:all}
.small{font-size:12px;color:#666}
</style>
</head>
<body>
<div class="card">
  <h2 class="{{if .OK}}ok{{else}}fail{{end}}">{{if .OK}}Success{{else}}Something went wrong{{end}}</h2>
  <p>{{.Msg}}</p>
  {{if .Plan}}<p>Plan: <b>{{.Plan}}</b></p>{{end}}
  {{if .Code}}<p class="code">{{.Code}}</p><div class="small">Keep this code safe. It is shown only on this page.</div>{{end}}
  {{if .ExpiresAt}}<p>Pro access until {{.ExpiresAt}}</p>{{end}}
</div>
</body>
</html>`))

func renderPage(w http.ResponseWriter, code int, d pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = page.Execute(w, d)
}

type promoPageData struct {
	Token       string
	ClaimURL    string
	WaitSeconds int
}

var promoPage = template.Must(template.New("promo").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Toolix Free Promo</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.btn{display:inline-block;margin-top:16px;padding:10px 16px;border-radius:8px;border:1px solid #888;text-decoration:none;pointer-events:none;opacity:.5}
.btn.ready{pointer-events:auto;opacity:1}
</style>
</head>
<body>
<div class="card" data-token="{{.Token}}">
  <h2>2 hours of Toolix Pro, free</h2>
  <p>Your reward unlocks in <span id="left">{{.WaitSeconds}}</span>s.</p>
  <a id="claim" class="btn" href="{{.ClaimURL}}">Claim my code</a>
</div>
<script>
(function(){
  var left = {{.WaitSeconds}};
  var el = document.getElementById("left");
  var t = setInterval(function(){
    left--; el.textContent = left;
    if (left <= 0) { clearInterval(t); document.getElementById("claim").className = "btn ready"; }
  }, 1000);
})();
</script>
</body>
</html>`))

func renderPromo(w http.ResponseWriter, d promoPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = promoPage.Execute(w, d)
}

package http

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/policy"
	"github.com/confmeet/posterwall/slideshow"
)

func FrameHandler(engine *slideshow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, engine.Frame())
	}
}

// ControlHandler steers the slideshow. Every action needs an admin
// token allowed by the policy.
func ControlHandler(engine *slideshow.Engine, screenID int, p *policy.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		var claims Claims
		if err := ParseToken(c, &claims); err != nil {
			unauthorized(c, http.StatusUnauthorized, err)
			return
		}

		action := c.Param("action")

		input := policy.Input{
			Subject:   claims.Subject,
			Audiences: claims.Audience,
			Action:    action,
			ScreenID:  screenID,
		}

		if !p.Allow(c, input) {
			c.Abort()
			c.String(http.StatusForbidden, "not allowed")
			return
		}

		switch action {
		case "pause":
			engine.Pause()
		case "resume":
			engine.Resume()
		case "next":
			engine.Next()
		case "previous":
			engine.Previous()
		case "reload":
			engine.Reload()
		default:
			badParam(c, "action")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"action": action,
			"state":  engine.Frame().State.String(),
		})
	}
}

var kioskPage = template.Must(template.New("kiosk").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { margin: 0; background: #0b2545; color: #eef4ed; font-family: sans-serif; overflow: hidden; }
  #header { height: {{.HeaderHeight}}px; padding: 8px 24px; box-sizing: border-box; }
  #header h1 { margin: 0; font-size: 28px; }
  #header h2 { margin: 4px 0 0; font-size: 20px; font-weight: normal; }
  #presenter { display: flex; align-items: center; gap: 16px; margin-top: 8px; }
  #portrait, #qrcode { height: {{.PortraitHeight}}px; }
  #poster { display: block; margin: 0 auto; width: {{.PosterWidth}}px; }
{{- if .Fading}}
  #poster { transition: opacity 0.4s; }
{{- end}}
</style>
</head>
<body>
<div id="header">
  <h1>{{.Header}}</h1>
  <h2 id="title"></h2>
  <div id="presenter">
    <img id="portrait" alt="">
    <span id="name"></span>
    <img id="qrcode" alt="">
  </div>
</div>
<img id="poster" alt="">
<script>
const poster = document.getElementById('poster');
{{- if .Fading}}
poster.addEventListener('load', () => { poster.style.opacity = 1; });
{{- end}}
function setPoster(src) {
  if (poster.getAttribute('src') === src) return;
{{- if .Fading}}
  poster.style.opacity = 0;
{{- end}}
  poster.src = src;
}
async function refresh() {
  const resp = await fetch('frame');
  const frame = await resp.json();
  if (frame.poster) {
    const id = frame.poster.friendly_id;
    document.getElementById('title').textContent = frame.poster.title;
    document.getElementById('name').textContent =
      frame.poster.presenter.first_name + ' ' + frame.poster.presenter.last_name +
      ' (' + frame.poster.presenter.affiliation + ')';
    setPoster('posters/' + id + '/image');
    document.getElementById('portrait').src = 'posters/' + id + '/portrait';
    document.getElementById('qrcode').src = 'posters/' + id + '/qrcode';
    document.getElementById('presenter').style.visibility = 'visible';
  } else {
    document.getElementById('title').textContent = '';
    document.getElementById('presenter').style.visibility = 'hidden';
    setPoster('fallback');
  }
}
{{- if .Fullscreen}}
document.addEventListener('click', () => document.documentElement.requestFullscreen());
{{- end}}
refresh();
setInterval(refresh, 1000);
</script>
</body>
</html>
`))

type kioskData struct {
	Title          string
	Header         string
	PosterWidth    int
	HeaderHeight   int
	PortraitHeight int
	Fading         bool
	Fullscreen     bool
}

// KioskHandler serves the page the unit's browser shows full screen.
func KioskHandler(c *gin.Context) {
	cfg := conf.G()

	data := kioskData{
		Title:          cfg.Name,
		Header:         cfg.Conference.HeaderTitle(),
		PosterWidth:    cfg.Display.PosterWidth,
		HeaderHeight:   cfg.Display.HeaderHeight,
		PortraitHeight: cfg.Display.PortraitHeight,
		Fading:         cfg.Display.Fading,
		Fullscreen:     cfg.Display.Mode == conf.Fullscreen,
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := kioskPage.Execute(c.Writer, data); err != nil {
		c.Error(err)
	}
}

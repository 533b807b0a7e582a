package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/confmeet/posterwall/assets"
	"github.com/confmeet/posterwall/conf"
)

// Image handlers stream cached scaled PNGs straight from the asset
// library so the kiosk page never sees a broken image.

func PosterImageHandler(library *assets.Library) gin.HandlerFunc {
	return func(c *gin.Context) {
		friendlyID, err := strconv.Atoi(c.Param("poster"))
		if err != nil {
			badParam(c, "poster")
			return
		}

		width := conf.G().Display.PosterWidth
		if q := c.Query("width"); q != "" {
			if w, err := strconv.Atoi(q); err == nil {
				width = w
			}
		}

		data, err := library.PosterPNG(friendlyID, width)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusInternalServerError, err.Error())
			return
		}

		c.Data(http.StatusOK, "image/png", data)
	}
}

// FallbackImageHandler streams the poster shown when the screen has no
// roster, so the kiosk page is never blank between sessions.
func FallbackImageHandler(library *assets.Library) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := library.FallbackPosterPNG(conf.G().Display.PosterWidth)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusInternalServerError, err.Error())
			return
		}

		c.Data(http.StatusOK, "image/png", data)
	}
}

func PortraitImageHandler(library *assets.Library) gin.HandlerFunc {
	return func(c *gin.Context) {
		friendlyID, err := strconv.Atoi(c.Param("poster"))
		if err != nil {
			badParam(c, "poster")
			return
		}

		data, err := library.PortraitPNG(friendlyID, conf.G().Display.PortraitHeight)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusInternalServerError, err.Error())
			return
		}

		c.Data(http.StatusOK, "image/png", data)
	}
}

func QRCodeImageHandler(library *assets.Library) gin.HandlerFunc {
	return func(c *gin.Context) {
		friendlyID, err := strconv.Atoi(c.Param("poster"))
		if err != nil {
			badParam(c, "poster")
			return
		}

		data, err := library.QRCodePNG(friendlyID, conf.G().Display.PortraitHeight)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusInternalServerError, err.Error())
			return
		}

		c.Data(http.StatusOK, "image/png", data)
	}
}

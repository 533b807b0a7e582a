package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"

	"github.com/confmeet/posterwall"
)

func SessionsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := endpoint(c, nil)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusExpectationFailed, err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func PostersHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := strconv.Atoi(c.Param("session"))
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		resp, err := endpoint(c, sessionID)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusExpectationFailed, err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func PosterHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		friendlyID, err := strconv.Atoi(c.Param("poster"))
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		resp, err := endpoint(c, friendlyID)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusNotFound, err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func RosterHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		screenID, err := strconv.Atoi(c.Param("screen"))
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		req := posterwall.RosterRequest{
			ScreenID: screenID,
		}

		if at := c.Query("at"); at != "" {
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				c.Abort()
				c.Error(err)
				c.String(http.StatusBadRequest, err.Error())
				return
			}

			req.At = t
		}

		resp, err := endpoint(c, req)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusExpectationFailed, err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func RandomPosterHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := endpoint(c, nil)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusExpectationFailed, err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func ReportHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := endpoint(c, nil)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusExpectationFailed, err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func unauthorized(c *gin.Context, code int, err error) {
	c.Abort()
	c.Error(err)
	c.Header("WWW-Authenticate", "Bearer realm="+issuer)
	c.String(code, err.Error())
}

func badParam(c *gin.Context, name string) error {
	err := errors.New(name + " not found")
	c.Abort()
	c.Error(err)
	c.String(http.StatusBadRequest, err.Error())
	return err
}

package api

import (
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NewServer exposes the feed handler over plain HTTP for local development.
// Every method is routed to the handler so method checks behave as in Lambda.
func NewServer(handler *FeedHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	serve := proxyHandler(handler)
	router.Any("/feed", serve)
	router.Any("/api/instagram-feed", serve)

	return router
}

// proxyHandler translates a gin request into an API Gateway proxy event and back
func proxyHandler(handler *FeedHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := toProxyRequest(c)

		response, err := handler.HandleRequest(c.Request.Context(), request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		for key, value := range response.Headers {
			c.Header(key, value)
		}

		if response.Body == "" {
			c.Status(response.StatusCode)
			return
		}
		c.Data(response.StatusCode, response.Headers["Content-Type"], []byte(response.Body))
	}
}

func toProxyRequest(c *gin.Context) events.APIGatewayProxyRequest {
	query := c.Request.URL.Query()
	single := make(map[string]string, len(query))
	for key, values := range query {
		if len(values) > 0 {
			single[key] = values[0]
		}
	}

	headers := make(map[string]string, len(c.Request.Header))
	for key := range c.Request.Header {
		headers[key] = c.Request.Header.Get(key)
	}

	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	}

	return events.APIGatewayProxyRequest{
		HTTPMethod:                      c.Request.Method,
		Path:                            c.Request.URL.Path,
		Headers:                         headers,
		MultiValueHeaders:               c.Request.Header,
		QueryStringParameters:           single,
		MultiValueQueryStringParameters: query,
		Body:                            string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  uuid.NewString(),
			HTTPMethod: c.Request.Method,
			Path:       c.Request.URL.Path,
		},
	}
}

package utils

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type rqIDKey struct{}

func GetRequestIDFromCtx(ctx context.Context) string {
	rqID, ok := ctx.Value(rqIDKey{}).(string)
	if !ok {
		return ""
	}
	return rqID
}

func CtxWithRqID(ctx context.Context, rqID string) context.Context {
	return context.WithValue(ctx, rqIDKey{}, rqID)
}

func CreateCtxWithRqID(c *gin.Context) context.Context {
	rqID, ok := c.Get("rqID")
	if !ok {
		return CtxWithRqID(c.Request.Context(), uuid.NewString())
	}
	return CtxWithRqID(c.Request.Context(), rqID.(string))
}

package handler

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// bindJSONTrackingKey binds the JSON request body into out and reports
// whether the named key was present in the payload. A key that is present
// with a null value is distinguishable from an absent key this way.
func bindJSONTrackingKey(c *gin.Context, out any, key string) (bool, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return false, err
	}

	var probe map[string]json.RawMessage
	hasKey := false
	if err := json.Unmarshal(body, &probe); err == nil {
		_, hasKey = probe[key]
	}

	if err := binding.JSON.BindBody(body, out); err != nil {
		return hasKey, err
	}
	return hasKey, nil
}

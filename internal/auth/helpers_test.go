package auth

import (
	"net/http"

	"github.com/bytedance/sonic"
)

func decodeJSON(r *http.Request, v interface{}) error {
	return sonic.ConfigDefault.NewDecoder(r.Body).Decode(v)
}

package middleware

import (
	"net/http"

	"github.com/junexi0828/focusmate-sub001/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// Package download раздача клиента бота владельцам активной подписки.
// Если собранный артефакт не настроен, отдаётся сгенерированный лаунчер,
// который проверяет ключ через /api/v1/bot/validate-license.
package download

import (
	"bytes"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
)

var launcher = template.Must(template.New("launcher").Parse(`# RM Bot Launcher
# Licença verificada online em {{.ValidateURL}}

import sys

import requests


def validate_license(license_key):
    try:
        response = requests.post("{{.ValidateURL}}", json={"license_key": license_key}, timeout=10)
        return response.status_code == 200
    except requests.RequestException:
        return False


if __name__ == "__main__":
    license_key = input("Digite sua chave de licença: ").strip()
    if validate_license(license_key):
        print("Licença válida! Iniciando RM Bot...")
    else:
        print("Licença inválida ou expirada!")
        sys.exit(1)
`))

// Handler отдаёт файл клиента.
type Handler struct {
	log          *slog.Logger
	artifactPath string
	fileName     string
	validateURL  string
	now          func() time.Time
}

// New создает новый экземпляр Handler. artifactPath может быть пустым.
func New(log *slog.Logger, artifactPath, fileName, publicURL string) *Handler {
	return &Handler{
		log:          log,
		artifactPath: artifactPath,
		fileName:     fileName,
		validateURL:  strings.TrimRight(publicURL, "/") + "/api/v1/bot/validate-license",
		now:          time.Now,
	}
}

// ServeHTTP godoc
// @Summary Скачать бота
// @Description Доступно только при активной подписке
// @Tags Bot
// @Produce  octet-stream
// @Success 200 {file} binary "Файл клиента"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет активной подписки"
// @Failure 500 {object} response.ErrorResponse "Артефакт недоступен"
// @Security BearerAuth
// @Router /bot/download [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bot.download"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": h.fileName}))

	if h.artifactPath == "" {
		var buf bytes.Buffer
		if err := launcher.Execute(&buf, struct{ ValidateURL string }{h.validateURL}); err != nil {
			log.Error("failed to render launcher", sl.Err(err))
			h.fail(w, r)
			return
		}
		log.Info("launcher downloaded")
		http.ServeContent(w, r, h.fileName, h.now(), bytes.NewReader(buf.Bytes()))
		return
	}

	f, err := os.Open(h.artifactPath)
	if err != nil {
		log.Error("failed to open bot artifact", slog.String("path", h.artifactPath), sl.Err(err))
		h.fail(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Error("failed to stat bot artifact", slog.String("path", h.artifactPath), sl.Err(err))
		h.fail(w, r)
		return
	}
	if info.IsDir() {
		log.Error("bot artifact is a directory", slog.String("path", h.artifactPath))
		h.fail(w, r)
		return
	}

	log.Info("bot artifact downloaded", slog.Int64("size", info.Size()))
	http.ServeContent(w, r, h.fileName, info.ModTime(), f)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request) {
	w.Header().Del("Content-Disposition")
	w.Header().Del("Content-Type")
	response.WithStatus(w, r, http.StatusInternalServerError, response.Error("bot artifact unavailable"))
}

package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/reqstream/reqstream"
	httpform "github.com/reqstream/reqstream/http"
)

const iconDir = "icons"

func main() {
	err := os.MkdirAll(iconDir, 0755)
	if err != nil {
		panic(err)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/submit", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		parser, err := httpform.NewParser(r,
			reqstream.WithMaxMemSize(8*reqstream.MB),
			reqstream.WithMaxFields(100),
		)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		form, err := parser.Parse()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer form.RemoveAll()

		id, _, ok := form.Value("id")
		if !ok || id == "" {
			http.Error(w, "id is required", http.StatusBadRequest)
			return
		}

		icon, ok := form.File("icon")
		if !ok {
			http.Error(w, "icon is required", http.StatusBadRequest)
			return
		}
		if icon.ContentType() != "image/png" {
			http.Error(w, "content type is not supported", http.StatusBadRequest)
			return
		}

		iconPath := filepath.Join(iconDir, id)

		_, err = os.Stat(iconPath)
		if err == nil {
			http.Error(w, "user already exists", http.StatusConflict)
			return
		}
		if !os.IsNotExist(err) {
			http.Error(w, "failed to check file existence", http.StatusInternalServerError)
			return
		}

		src, err := icon.Open()
		if err != nil {
			http.Error(w, "failed to open upload", http.StatusInternalServerError)
			return
		}
		defer src.Close()

		dst, err := os.Create(iconPath)
		if err != nil {
			http.Error(w, "failed to create file", http.StatusInternalServerError)
			return
		}
		defer dst.Close()

		_, err = io.Copy(dst, src)
		if err != nil {
			http.Error(w, "failed to copy", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
	})
	mux.Handle("/icons/", http.StripPrefix("/icons/", http.FileServer(http.Dir(iconDir))))

	err = http.ListenAndServe(":8080", mux)
	if err != nil {
		panic(err)
	}
}

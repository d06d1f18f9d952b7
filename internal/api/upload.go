package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"storefront-catalog-service/internal/blob"
)

const uploadSuccessMessage = "Image uploaded successfully"

var (
	errNoImage       = errors.New(`No image provided. Send "image" field with file or base64 data.`)
	errNotDataURL    = errors.New("Invalid image data. Expected base64 data URL or file upload.")
	errMissingComma  = errors.New("Invalid image data: missing ',' between header and payload.")
	errBadMIME       = errors.New("Invalid image data: header must be 'data:image/<format>;base64'.")
	errBadBase64     = errors.New("Invalid image data: payload is not valid base64.")
	errEmptyPayload  = errors.New("Invalid image data: payload is empty.")
	errImageTooLarge = errors.New("Image exceeds the maximum upload size.")
)

type uploadResponse struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// UploadImage accepts either a multipart "image" file part or an "image"
// base64 data URL (in JSON, a urlencoded form or a multipart field) and stores it.
func (h *HTTPHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	defer r.Body.Close()

	data, ext, err := h.readUpload(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = errImageTooLarge
		}
		respondWithError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	url, err := h.blobs.Put(r.Context(), data, ext)
	if err != nil {
		respondWithServiceError(w, "UploadImage", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, uploadResponse{URL: url, Message: uploadSuccessMessage})
}

func (h *HTTPHandler) readUpload(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return nil, "", err
		}
		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return nil, "", err
			}
			if len(data) == 0 {
				return nil, "", errEmptyPayload
			}
			return data, extFromFilename(header.Filename), nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, "", err
		}
		if value := r.FormValue("image"); value != "" {
			return decodeDataURL(value)
		}
		return nil, "", errNoImage
	}

	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return nil, "", err
		}
		if value := r.PostFormValue("image"); value != "" {
			return decodeDataURL(value)
		}
		return nil, "", errNoImage
	}

	var body struct {
		Image *string `json:"image"`
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, "", errNoImage
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, "", errors.New("Invalid request payload: " + err.Error())
	}
	if body.Image == nil || *body.Image == "" {
		return nil, "", errNoImage
	}
	return decodeDataURL(*body.Image)
}

// extFromFilename returns the part after the last dot, or the default when there is none.
func extFromFilename(name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		return blob.DefaultExt
	}
	return ext
}

// decodeDataURL parses "data:image/<format>;base64,<payload>" and returns the
// decoded bytes and format.
func decodeDataURL(s string) ([]byte, string, error) {
	if !strings.HasPrefix(s, "data:image") {
		return nil, "", errNotDataURL
	}
	header, payload, found := strings.Cut(s, ",")
	if !found {
		return nil, "", errMissingComma
	}

	params := strings.Split(strings.TrimPrefix(header, "data:"), ";")
	typ, format, ok := strings.Cut(params[0], "/")
	if !ok || typ != "image" || format == "" {
		return nil, "", errBadMIME
	}
	isBase64 := false
	for _, p := range params[1:] {
		if p == "base64" {
			isBase64 = true
		}
	}
	if !isBase64 {
		return nil, "", errBadMIME
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", errEmptyPayload
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", errBadBase64
		}
	}
	if format == "svg+xml" {
		format = "svg"
	}
	return data, format, nil
}

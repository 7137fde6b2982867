package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/sbilibin2017/gw-recipe-book/internal/models"
	"github.com/sbilibin2017/gw-recipe-book/internal/services"
)

// Upper bounds on request bodies.
const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 10 << 20
)

// readRecipeInput decodes a recipe payload sent either as a JSON document or
// as multipart/form-data with a "recipe" JSON field and an optional "image"
// file. image is nil when none was sent.
func readRecipeInput(w http.ResponseWriter, r *http.Request) (input models.RecipeInput, image []byte, err error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			return input, nil, invalidInput(err)
		}
		return input, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		return input, nil, invalidInput(err)
	}
	defer r.MultipartForm.RemoveAll()

	raw := r.MultipartForm.Value["recipe"]
	if len(raw) == 0 {
		return input, nil, fmt.Errorf("%w: missing recipe field", services.ErrInvalidRecipe)
	}
	if err := json.Unmarshal([]byte(raw[0]), &input); err != nil {
		return input, nil, invalidInput(err)
	}

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return input, nil, nil
	}
	if err != nil {
		return input, nil, invalidInput(err)
	}
	defer file.Close()

	image, err = io.ReadAll(file)
	if err != nil {
		return input, nil, invalidInput(err)
	}
	if len(image) == 0 {
		image = nil
	}
	return input, image, nil
}

func invalidInput(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return fmt.Errorf("%w: %w", services.ErrInvalidRecipe, err)
}

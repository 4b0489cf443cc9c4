package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/sample_app/internal/models"
)

// UserDoc is the indexed projection of a user. Password hashes and the admin
// flag never leave the database.
type UserDoc struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type Results struct {
	Total int64
	Items []UserDoc
}

type UserIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func docOf(u *models.User) UserDoc {
	return UserDoc{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (x *UserIndex) IndexUser(ctx context.Context, u *models.User) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(docOf(u)); err != nil {
		return fmt.Errorf("search: encode: %w", err)
	}

	res, err := x.ES.Index(
		x.Index,
		&buf,
		x.ES.Index.WithContext(ctx),
		x.ES.Index.WithDocumentID(u.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("search: index user: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index user", res.Status(), res.Body)
	}
	return nil
}

// DeleteUser treats a missing document as already deleted.
func (x *UserIndex) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := x.ES.Delete(x.Index, id.String(), x.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete user: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return responseError("delete user", res.Status(), res.Body)
	}
	return nil
}

func (x *UserIndex) Search(ctx context.Context, rawQ string, from, size int) (Results, error) {
	q := strings.TrimSpace(rawQ)
	if q == "" {
		return Results{Items: []UserDoc{}}, nil
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "email"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Results{}, fmt.Errorf("search: encode: %w", err)
	}

	res, err := x.ES.Search(
		x.ES.Search.WithContext(ctx),
		x.ES.Search.WithIndex(x.Index),
		x.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return Results{}, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Results{}, responseError("search", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source UserDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Results{}, fmt.Errorf("search: decode: %w", err)
	}

	items := make([]UserDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		items[i] = hit.Source
	}
	return Results{Total: r.Hits.Total.Value, Items: items}, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 1024))
	return fmt.Errorf("search: %s: %s: %s", op, status, b)
}

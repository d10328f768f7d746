package gallery

import (
	"bytes"
	"encoding/json"
	"errors"

	"base_gallery/internal/apperror"
	"base_gallery/internal/domain/models"
)

// envelope is the structured response every current backend endpoint returns.
type envelope struct {
	Success    *bool           `json:"success"`
	Data       json.RawMessage `json:"data"`
	Total      int             `json:"total"`
	Page       *int            `json:"page"`
	TotalPages *int            `json:"totalPages"`
	Message    string          `json:"message"`
}

func decodeEnvelope(body []byte) (*envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, apperror.Shape("response is not an envelope object")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperror.Shape(err.Error())
	}

	if env.Success == nil {
		return nil, apperror.Shape("envelope has no success flag")
	}

	if !*env.Success {
		message := env.Message
		if message == "" {
			message = "request was not successful"
		}
		return nil, &apperror.AppError{Err: apperror.ErrServer, Message: message}
	}

	return &env, nil
}

func decodeArray(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return apperror.Shape("data is not an array")
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return apperror.Shape(err.Error())
	}

	return nil
}

func decodeItem(body []byte) (*models.Item, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(env.Data)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, apperror.Shape("data is not an object")
	}

	var item models.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, apperror.Shape(err.Error())
	}

	return &item, nil
}

func (c *Client) decodeList(body []byte, requestedPage int) (*models.ItemPage, error) {
	page, err := decodeStrictList(body, requestedPage)
	if err == nil || !c.legacyEnvelopes || !errors.Is(err, apperror.ErrShape) {
		return page, err
	}

	legacy, legacyErr := decodeLegacyList(body, requestedPage)
	if legacyErr != nil {
		return nil, err
	}

	c.log.Debug("decoded legacy list envelope")

	return legacy, nil
}

func decodeStrictList(body []byte, requestedPage int) (*models.ItemPage, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	if env.TotalPages == nil {
		return nil, apperror.Shape("envelope has no totalPages")
	}

	var items []models.Item
	if err := decodeArray(env.Data, &items); err != nil {
		return nil, err
	}

	page := requestedPage
	if env.Page != nil {
		page = *env.Page
	}

	return &models.ItemPage{
		Items:      items,
		Page:       page,
		TotalPages: *env.TotalPages,
		Total:      env.Total,
	}, nil
}

// decodeLegacyList accepts the shapes older backends returned: a bare array,
// or an object carrying the array under data, results or bases. A legacy
// response without paging metadata is treated as the last page. An object
// reporting "success":false is never a legacy list.
func decodeLegacyList(body []byte, requestedPage int) (*models.ItemPage, error) {
	body = bytes.TrimSpace(body)
	if requestedPage < 1 {
		requestedPage = 1
	}

	if len(body) > 0 && body[0] == '[' {
		var items []models.Item
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, apperror.Shape(err.Error())
		}
		return &models.ItemPage{Items: items, Page: requestedPage, TotalPages: requestedPage, Total: len(items)}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, apperror.Shape(err.Error())
	}

	if v, ok := obj["success"]; ok {
		var success bool
		if err := json.Unmarshal(v, &success); err != nil || !success {
			return nil, apperror.Shape("unsuccessful response")
		}
	}

	for _, key := range []string{"data", "results", "bases"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}

		var items []models.Item
		if err := decodeArray(raw, &items); err != nil {
			continue
		}

		page := &models.ItemPage{Items: items, Page: requestedPage, TotalPages: requestedPage, Total: len(items)}
		if v, ok := obj["totalPages"]; ok {
			_ = json.Unmarshal(v, &page.TotalPages)
		}
		if v, ok := obj["page"]; ok {
			_ = json.Unmarshal(v, &page.Page)
		}

		return page, nil
	}

	return nil, apperror.Shape("no item array in response")
}

package todo

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	msgInvalidBody     = "Invalid request body"
	msgInvalidUserID   = "Invalid user id"
	msgInvalidTodoID   = "Invalid todo id"
	msgTitleRequired   = "Title is required"
	msgTitleNotEmpty   = "Title must be a non-empty string"
	msgCompletedIsBool = "Completed must be a boolean"
)

// ValidationError is a rejected path parameter or request body. Handlers
// answer it with 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

const createTodoSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "CreateTodoRequest",
	"type": "object",
	"required": ["title"],
	"properties": {
		"title": {"type": "string", "minLength": 1}
	}
}`

const updateTodoSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "UpdateTodoRequest",
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"completed": {"type": "boolean"}
	}
}`

var (
	createSchema = mustCompileSchema("create-todo.json", createTodoSchema)
	updateSchema = mustCompileSchema("update-todo.json", updateTodoSchema)
)

func mustCompileSchema(name, source string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
		panic("todo: add schema " + name + ": " + err.Error())
	}
	return compiler.MustCompile(name)
}

// ParseUserID accepts any non-empty string verbatim.
func ParseUserID(raw string) (string, error) {
	if raw == "" {
		return "", invalid("userId", msgInvalidUserID)
	}
	return raw, nil
}

// ParseTodoID requires a base-10 integer of at least 1.
func ParseTodoID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, invalid("id", msgInvalidTodoID)
	}
	return id, nil
}

// DecodeCreateRequest validates body against the create schema. The title
// is not trimmed.
func DecodeCreateRequest(body []byte) (CreateRequest, error) {
	var req CreateRequest
	if err := decodeWithSchema(body, createSchema, createFieldMessage, &req); err != nil {
		return CreateRequest{}, err
	}
	return req, nil
}

// DecodeUpdateRequest validates body against the update schema. An empty
// object is a valid patch.
func DecodeUpdateRequest(body []byte) (UpdateRequest, error) {
	var req UpdateRequest
	if err := decodeWithSchema(body, updateSchema, updateFieldMessage, &req); err != nil {
		return UpdateRequest{}, err
	}
	return req, nil
}

func decodeWithSchema(body []byte, schema *jsonschema.Schema, describe func(*jsonschema.ValidationError) *ValidationError, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return invalid("", msgInvalidBody)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return invalid("", msgInvalidBody)
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return invalid("", msgInvalidBody)
		}
		return firstViolation(ve, describe)
	}

	// the schema already pinned every known field's type
	if err := json.Unmarshal(body, dst); err != nil {
		return invalid("", msgInvalidBody)
	}
	return nil
}

// firstViolation walks to the leaf causes and reports the first one that
// names a field; otherwise the body as a whole is rejected.
func firstViolation(err *jsonschema.ValidationError, describe func(*jsonschema.ValidationError) *ValidationError) *ValidationError {
	for _, leaf := range leaves(err) {
		if v := describe(leaf); v != nil {
			return v
		}
	}
	return invalid("", msgInvalidBody)
}

func leaves(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		out = append(out, leaves(cause)...)
	}
	return out
}

func createFieldMessage(leaf *jsonschema.ValidationError) *ValidationError {
	if leaf.InstanceLocation == "/title" || isMissingTitle(leaf) {
		return invalid("title", msgTitleRequired)
	}
	return nil
}

func updateFieldMessage(leaf *jsonschema.ValidationError) *ValidationError {
	switch leaf.InstanceLocation {
	case "/title":
		return invalid("title", msgTitleNotEmpty)
	case "/completed":
		return invalid("completed", msgCompletedIsBool)
	}
	return nil
}

func isMissingTitle(leaf *jsonschema.ValidationError) bool {
	return leaf.InstanceLocation == "" &&
		strings.HasSuffix(leaf.KeywordLocation, "/required") &&
		strings.Contains(leaf.Message, "title")
}

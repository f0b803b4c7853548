// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigSaveWriteFailure     Code = "config.save.write.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"
	CodeConfigAlreadyInitialized   Code = "config.init.conflict"

	CodeBackendUnknown         Code = "backend.registry.unknown"
	CodeBackendModelUnknown    Code = "backend.model.not_found"
	CodeBackendKeyMissing      Code = "backend.key.missing"
	CodeBackendKeyInvalid      Code = "backend.key.invalid"
	CodeBackendKeyCheckFailed  Code = "backend.key.check.failure"
	CodeBackendUpstreamFailure Code = "backend.upstream.failure"
	CodeBackendResponseInvalid Code = "backend.response.invalid_format"

	CodeVectorConnectFailure     Code = "vectorstore.connect.failure"
	CodeVectorCollectionNotFound Code = "vectorstore.collection.not_found"
	CodeVectorSchemaFailure      Code = "vectorstore.schema.failure"
	CodeVectorInsertFailure      Code = "vectorstore.insert.failure"
	CodeVectorQueryFailure       Code = "vectorstore.query.failure"
	CodeVectorBackendUnsupported Code = "vectorstore.backend.unsupported"

	CodeEmbeddingRequestFailure   Code = "embedding.request.failure"
	CodeEmbeddingResponseInvalid  Code = "embedding.response.invalid_format"
	CodeEmbeddingDimensionUnknown Code = "embedding.dimension.failure"

	CodeRAGStrategyUnknown Code = "rag.strategy.unknown"
	CodeRAGRetrieveFailure Code = "rag.retrieve.failure"
	CodeRAGGenerateFailure Code = "rag.generate.failure"
	CodeRAGPromptInvalid   Code = "rag.prompt.invalid_input"

	CodeIngestRepoInvalid    Code = "ingest.repo.invalid_input"
	CodeIngestBranchNotFound Code = "ingest.branch.not_found"
	CodeIngestFetchFailure   Code = "ingest.fetch.failure"
	CodeIngestNoContent      Code = "ingest.content.not_found"

	CodeSecretNotFound       Code = "secret.get.not_found"
	CodeSecretStoreFailure   Code = "secret.store.failure"
	CodeSecretDeleteFailure  Code = "secret.delete.failure"
	CodeSecretListFailure    Code = "secret.list.failure"
	CodeSecretInvalidInput   Code = "secret.invalid_input"
	CodeSecretResolveFailure Code = "secret.resolve.failure"

	CodeCLINotInitialized Code = "cli.config.not_initialized"
	CodeCLIInputInvalid   Code = "cli.input.invalid_input"
	CodeCLISetupFailure   Code = "cli.setup.failure"
	CodeCLIInternal       Code = "cli.internal.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldBackend(value string) Attr {
	return Field("backend", value)
}

func FieldModel(value string) Attr {
	return Field("model", value)
}

func FieldCollection(value string) Attr {
	return Field("collection", value)
}

func FieldStrategy(value string) Attr {
	return Field("strategy", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeCLIInternal
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsConflict(err error) bool {
	return reason(CodeOf(err)) == "conflict"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

func Join(errs ...error) error {
	return oops.Code(CodeCLIInternal).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}

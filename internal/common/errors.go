package common

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeConflict   ErrorCode = "conflict"
	ErrorCodeTooLarge   ErrorCode = "too_large"
	ErrorCodeInternal   ErrorCode = "internal"
)

// ServiceError 是面向调用方（HTTP 层）的业务错误，Message 可直接返回给客户端
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func NewServiceError(code ErrorCode, message string) error {
	return &ServiceError{Code: code, Message: message}
}

func NewValidationError(message string) error {
	return NewServiceError(ErrorCodeValidation, message)
}

func NewNotFoundError(message string) error {
	return NewServiceError(ErrorCodeNotFound, message)
}

func NewConflictError(message string) error {
	return NewServiceError(ErrorCodeConflict, message)
}

func NewTooLargeError(message string) error {
	return NewServiceError(ErrorCodeTooLarge, message)
}

func NewInternalError(message string) error {
	return NewServiceError(ErrorCodeInternal, message)
}

func AsServiceError(err error) (*ServiceError, bool) {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr, true
	}
	return nil, false
}

// DatabaseError 包装底层存储失败（连接、约束、SQL 语法等）
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

func NewDatabaseError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *DatabaseError
	if errors.As(err, &existing) {
		return err
	}
	return &DatabaseError{Op: op, Err: err}
}

func AsDatabaseError(err error) (*DatabaseError, bool) {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr, true
	}
	return nil, false
}

// ThumbnailError 表示缩略图生成失败（源文件不可读、缩放失败、目标不可写）
type ThumbnailError struct {
	Source string
	Err    error
}

func (e *ThumbnailError) Error() string {
	return fmt.Sprintf("thumbnail %s: %v", e.Source, e.Err)
}

func (e *ThumbnailError) Unwrap() error {
	return e.Err
}

func NewThumbnailError(source string, err error) error {
	return &ThumbnailError{Source: source, Err: err}
}

func AsThumbnailError(err error) (*ThumbnailError, bool) {
	var thumbErr *ThumbnailError
	if errors.As(err, &thumbErr) {
		return thumbErr, true
	}
	return nil, false
}

package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound запись не существует или не принадлежит пользователю.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists нарушено ограничение уникальности.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials неверный логин или пароль. Причина наружу не раскрывается.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPaymentNotPending платёж уже завершён или отменён.
	ErrPaymentNotPending = errors.New("payment is not pending")
	// ErrSubscriptionRequired действие требует активной подписки.
	ErrSubscriptionRequired = errors.New("active subscription required")
	// ErrInvalidLicense ключ не найден.
	ErrInvalidLicense = errors.New("invalid license key")
	// ErrLicenseExpired ключ найден, но подписка не активна.
	ErrLicenseExpired = errors.New("license expired")
	// ErrInvalidPlan неизвестный тариф.
	ErrInvalidPlan = errors.New("invalid plan type")
	// ErrInvalidPaymentMethod неизвестный способ оплаты.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrInvalidStatus недопустимый статус.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidCounters счётчики сессии бота не могут быть отрицательными.
	ErrInvalidCounters = errors.New("counters must not be negative")
	// ErrPasswordTooLong пароль длиннее 72 байт, bcrypt такой не примет.
	ErrPasswordTooLong = errors.New("password too long")
)

var (
	// ErrUsernameTaken имя пользователя уже занято.
	ErrUsernameTaken = fmt.Errorf("username %w", ErrAlreadyExists)
	// ErrEmailTaken e-mail уже зарегистрирован.
	ErrEmailTaken = fmt.Errorf("email %w", ErrAlreadyExists)
)

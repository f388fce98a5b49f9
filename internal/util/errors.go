package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamNotAvailable   = errors.New("exam not published or outside its answer window")
	ErrAnswerNotFound     = errors.New("answer record not found")
	ErrResultNotFound     = errors.New("exam result not found")
	ErrEmptyAnswerList    = errors.New("answer list is empty")
)

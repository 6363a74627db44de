package entity

import "choria/modules/kit/errx"

const (
	CodeCharacterNotFound errx.Code = "CHARACTER_NOT_FOUND"
	CodeCharacterLimit    errx.Code = "CHARACTER_LIMIT"
	CodeNameInUse         errx.Code = "CHARACTER_NAME_IN_USE"
)

var (
	ErrCharacterNotFound = errx.NewBiz(CodeCharacterNotFound, "character not found")
	ErrCharacterLimit    = errx.NewBiz(CodeCharacterLimit, "too many characters")
	ErrNameInUse         = errx.NewBiz(CodeNameInUse, "character name in use")
)

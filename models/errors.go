package models

import "errors"

var (
	ErrInvalidPerson    = errors.New("invalid person")
	ErrInvalidMarriage  = errors.New("invalid marriage")
	ErrPersonNotFound   = errors.New("person not found")
	ErrMarriageNotFound = errors.New("marriage not found")
)

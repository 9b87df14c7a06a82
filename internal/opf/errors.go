package opf

import "errors"

var (
	ErrContainerMissing       = errors.New("unable to find container descriptor")
	ErrContainerCorrupt       = errors.New("failed to parse container descriptor")
	ErrPackageNotDeclared     = errors.New("no package document declared in container")
	ErrPackageMissing         = errors.New("unable to find package document")
	ErrPackageCorrupt         = errors.New("failed to parse package document")
	ErrTocMissing             = errors.New("unable to find table of contents")
	ErrTocCorrupt             = errors.New("failed to parse table of contents")
	ErrFileNotFound           = errors.New("no such file")
	ErrInvalidIdentifierUsage = errors.New("second path part must not start with /")
	ErrIdentifierMissing      = errors.New("cannot find ebook identifier")
	ErrInvalidPatch           = errors.New("invalid metadata patch")
)

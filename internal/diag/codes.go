package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// fixture loading
	IOLoadFileError Code = 4001

	// fixture binding
	FixInfo             Code = 5000
	FixBadDocument      Code = 5001
	FixUnknownType      Code = 5002
	FixUnknownSymbol    Code = 5003
	FixBadIdentifier    Code = 5004
	FixDuplicateSymbol  Code = 5005
	FixUnknownNode      Code = 5006
	FixBadTypeArguments Code = 5007
	FixMissingField     Code = 5008

	// closure conversion
	LowerInfo              Code = 9000
	LowerCaptureRestricted Code = 9001
	LowerCacheUnavailable  Code = 9002
	LowerInternal          Code = 9003
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	IOLoadFileError:        "I/O error while loading file",
	FixInfo:                "Fixture information",
	FixBadDocument:         "Malformed fixture document",
	FixUnknownType:         "Unknown type",
	FixUnknownSymbol:       "Unknown symbol",
	FixBadIdentifier:       "Invalid identifier",
	FixDuplicateSymbol:     "Duplicate symbol",
	FixUnknownNode:         "Unknown node kind",
	FixBadTypeArguments:    "Wrong number of type arguments",
	FixMissingField:        "Missing required field",
	LowerInfo:              "Lowering information",
	LowerCaptureRestricted: "Cannot capture a value of restricted type in a closure",
	LowerCacheUnavailable:  "Delegate cache unavailable",
	LowerInternal:          "Internal lowering failure",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("FIX%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("LFT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

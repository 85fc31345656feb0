// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"strings"
)

// A Code is a numeric transport engine result code.
type Code int

// Engine result codes. The numeric values match the libcurl CURLE_*
// constants of the same name.
const (
	Unknown                 Code = -1
	OK                      Code = 0
	UnsupportedProtocol     Code = 1
	URLMalformat            Code = 3
	CouldntResolveProxy     Code = 5
	CouldntResolveHost      Code = 6
	CouldntConnect          Code = 7
	WriteError              Code = 23
	OperationTimedout       Code = 28
	SSLConnectError         Code = 35
	BadFunctionArgument     Code = 43
	InterfaceFailed         Code = 45
	TooManyRedirects        Code = 47
	GotNothing              Code = 52
	SendError               Code = 55
	RecvError               Code = 56
	PeerFailedVerification  Code = 60
	BadContentEncoding      Code = 61
	SendFailRewind          Code = 65
	SSLIssuerError          Code = 83
	SSLPinnedPubKeyNotMatch Code = 90
	SSLInvalidCertStatus    Code = 91
)

var codeNames = map[Code]string{
	Unknown:                 "Unknown",
	OK:                      "OK",
	UnsupportedProtocol:     "UnsupportedProtocol",
	URLMalformat:            "URLMalformat",
	CouldntResolveProxy:     "CouldntResolveProxy",
	CouldntResolveHost:      "CouldntResolveHost",
	CouldntConnect:          "CouldntConnect",
	WriteError:              "WriteError",
	OperationTimedout:       "OperationTimedout",
	SSLConnectError:         "SSLConnectError",
	BadFunctionArgument:     "BadFunctionArgument",
	InterfaceFailed:         "InterfaceFailed",
	TooManyRedirects:        "TooManyRedirects",
	GotNothing:              "GotNothing",
	SendError:               "SendError",
	RecvError:               "RecvError",
	PeerFailedVerification:  "PeerFailedVerification",
	BadContentEncoding:      "BadContentEncoding",
	SendFailRewind:          "SendFailRewind",
	SSLIssuerError:          "SSLIssuerError",
	SSLPinnedPubKeyNotMatch: "SSLPinnedPubKeyNotMatch",
	SSLInvalidCertStatus:    "SSLInvalidCertStatus",
}

// String returns the name of the code, or "Code(n)" if the code is not
// one of the named constants.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return fmt.Sprintf("Code(%d)", int(c))
}

// An Error is returned by Handle.Perform when the exchange fails. Code
// identifies the failure class and Message is the human readable
// explanation.
type Error struct {
	Code    Code
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (err *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "engine: (%d) ", int(err.Code))
	if err.Message != "" {
		b.WriteString(err.Message)
	} else {
		b.WriteString(err.Code.String())
	}

	return b.String()
}

// Unwrap returns the underlying cause.
func (err *Error) Unwrap() error {
	return err.Err
}

// Timeout reports whether the error is OperationTimedout.
func (err *Error) Timeout() bool {
	return err.Code == OperationTimedout
}

func errorf(code Code, cause error, format string, a ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...), Err: cause}
}

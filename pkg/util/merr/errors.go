// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"github.com/cockroachdb/errors"
)

const retryableFlag = 1 << 16

// Define leaf errors here,
// WARN: check whether an existing error fits before adding a new one.
var (
	// Table & tablet related
	ErrTableNotFound  = newTesseraError("table not found", 200, false)
	ErrTabletOrphaned = newTesseraError("tablet references unknown server", 201, true)

	// Balancer related
	ErrPendingTaskConflict = newTesseraError("pending task of same kind exists", 300, true)
	ErrNoCandidateServer   = newTesseraError("no eligible candidate server", 301, true)
	ErrRunInProgress       = newTesseraError("balancer run already in progress", 302, true)

	// Dispatch & catalog related
	ErrDispatchRejected = newTesseraError("replica change rejected by catalog", 400, true)
	ErrCatalogUnhealthy = newTesseraError("catalog unavailable", 401, true)
)

type tesseraError struct {
	msg     string
	errCode int32
}

func newTesseraError(msg string, code int32, retriable bool) tesseraError {
	if retriable {
		code |= retryableFlag
	}
	return tesseraError{
		msg:     msg,
		errCode: code,
	}
}

func (e tesseraError) code() int32 {
	return e.errCode
}

func (e tesseraError) Error() string {
	return e.msg
}

func (e tesseraError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(tesseraError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

// IsRetryable reports whether a later balancer run may succeed
// where this one failed.
func IsRetryable(err error) bool {
	cause := errors.Cause(err)
	if te, ok := cause.(tesseraError); ok {
		return te.code()&retryableFlag != 0
	}
	return false
}

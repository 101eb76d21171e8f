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

// Table & tablet related
func WrapErrTableNotFound(tableID int64, msg ...string) error {
	err := errors.Wrapf(ErrTableNotFound, "table=%d", tableID)
	if len(msg) > 0 {
		err = errors.Wrap(err, msg[0])
	}
	return err
}

func WrapErrTabletOrphaned(tabletID, serverID int64) error {
	return errors.Wrapf(ErrTabletOrphaned, "tablet=%d server=%d", tabletID, serverID)
}

// Balancer related
func WrapErrPendingTaskConflict(tabletID int64, kind string) error {
	return errors.Wrapf(ErrPendingTaskConflict, "tablet=%d kind=%s", tabletID, kind)
}

func WrapErrNoCandidateServer(tabletID int64, msg ...string) error {
	err := errors.Wrapf(ErrNoCandidateServer, "tablet=%d", tabletID)
	if len(msg) > 0 {
		err = errors.Wrap(err, msg[0])
	}
	return err
}

// Dispatch & catalog related
func WrapErrDispatchRejected(tabletID, serverID int64, msg ...string) error {
	err := errors.Wrapf(ErrDispatchRejected, "tablet=%d server=%d", tabletID, serverID)
	if len(msg) > 0 {
		err = errors.Wrap(err, msg[0])
	}
	return err
}

func WrapErrCatalogUnhealthy(err error) error {
	return errors.Wrap(ErrCatalogUnhealthy, err.Error())
}

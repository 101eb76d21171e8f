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

package balance

import (
	"container/heap"
)

// serverItem ranks one candidate server. Lower sorts first:
// load measure, then the policy tie-break rank, then server ID so the
// ordering is total and runs stay deterministic.
type serverItem struct {
	serverID int64
	priority int
	rank     int
}

func (i *serverItem) less(other *serverItem) bool {
	if i.priority != other.priority {
		return i.priority < other.priority
	}
	if i.rank != other.rank {
		return i.rank < other.rank
	}
	return i.serverID < other.serverID
}

type serverHeap []*serverItem

func (h serverHeap) Len() int {
	return len(h)
}

func (h serverHeap) Less(i, j int) bool {
	return h[i].less(h[j])
}

func (h serverHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *serverHeap) Push(x any) {
	*h = append(*h, x.(*serverItem))
}

func (h *serverHeap) Pop() any {
	arr := *h
	l := len(arr)
	ret := arr[l-1]
	*h = arr[0 : l-1]
	return ret
}

type priorityQueue struct {
	serverHeap
}

func newPriorityQueue() priorityQueue {
	h := make(serverHeap, 0)
	heap.Init(&h)
	return priorityQueue{
		serverHeap: h,
	}
}

func (pq *priorityQueue) push(item *serverItem) {
	heap.Push(&pq.serverHeap, item)
}

func (pq *priorityQueue) pop() *serverItem {
	return heap.Pop(&pq.serverHeap).(*serverItem)
}

func (pq *priorityQueue) len() int {
	return pq.serverHeap.Len()
}

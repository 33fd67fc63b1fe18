// Copyright 2025 Piet Veldt
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

// Package tasks defines the asynq task types exchanged between the
// server and the worker, and the handler that executes them.
package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeRetrieve  = "skim:retrieve"
	TypeSummarize = "skim:summarize"
)

type retrieveTaskPayload struct {
	URL   string
	Query string
	TopK  int
}

type summarizeTaskPayload struct {
	URL      string
	MaxWords int
}

func NewRetrieveTask(url string, query string, topK int) (*asynq.Task, error) {
	tp := retrieveTaskPayload{
		URL:   url,
		Query: query,
		TopK:  topK,
	}
	payload, err := json.Marshal(tp)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRetrieve, payload), nil
}

func NewSummarizeTask(url string, maxWords int) (*asynq.Task, error) {
	tp := summarizeTaskPayload{
		URL:      url,
		MaxWords: maxWords,
	}
	payload, err := json.Marshal(tp)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSummarize, payload), nil
}

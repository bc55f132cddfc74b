package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrNotModified = errors.New("not modified")
)

type Stage string

const (
	StageConnect   Stage = "connect"
	StageDownload  Stage = "download"
	StageDecode    Stage = "decode"
	StageEncode    Stage = "encode"
	StageContainer Stage = "container"
	StageUpload    Stage = "upload"
	StageDelete    Stage = "delete"
)

// Failure is an operational error of a single invocation. The caller is
// expected to redeliver the notification.
type Failure struct {
	Stage Stage
	Name  string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Stage, f.Name, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

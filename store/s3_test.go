package store

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = data
	if params.ContentType != nil {
		f.types[*params.Key] = *params.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_SaveArtifact(t *testing.T) {
	fake := newFakeS3()
	st := &S3Store{client: fake, cfg: S3Config{Bucket: "conversions", Prefix: "pagesmith"}}

	html := []byte("<!DOCTYPE html>\n<html></html>\n")
	path, err := st.SaveArtifact(context.Background(), "req-1a2b3c4d", html)
	if err != nil {
		t.Fatalf("SaveArtifact() error: %v", err)
	}
	if path != "s3://conversions/pagesmith/req-1a2b3c4d/page.html" {
		t.Errorf("path = %q", path)
	}

	key := "pagesmith/req-1a2b3c4d/page.html"
	if !bytes.Equal(fake.objects[key], html) {
		t.Errorf("stored object = %q, want %q", fake.objects[key], html)
	}
	if fake.types[key] != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", fake.types[key])
	}
}

func TestS3Store_SaveTrace(t *testing.T) {
	fake := newFakeS3()
	st := &S3Store{client: fake, cfg: S3Config{Bucket: "conversions"}}

	want := sampleTrace()
	path, err := st.SaveTrace(context.Background(), want.RequestID, want)
	if err != nil {
		t.Fatalf("SaveTrace() error: %v", err)
	}
	if path != "s3://conversions/req-1a2b3c4d/session.trace" {
		t.Errorf("path = %q", path)
	}

	got, err := DecodeTrace(bytes.NewReader(fake.objects["req-1a2b3c4d/session.trace"]))
	if err != nil {
		t.Fatalf("DecodeTrace() error: %v", err)
	}
	if got.RequestID != want.RequestID || got.Outcome != want.Outcome {
		t.Errorf("decoded trace = %+v", got)
	}
}

func TestS3Store_RejectsBadRequestID(t *testing.T) {
	st := &S3Store{client: newFakeS3(), cfg: S3Config{Bucket: "conversions"}}
	if _, err := st.SaveArtifact(context.Background(), "a/b", []byte("x")); err == nil {
		t.Error("SaveArtifact() accepted a request ID with path separators")
	}
}

func TestS3Config_Validate(t *testing.T) {
	cfg := S3Config{Bucket: "conversions"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
	empty := S3Config{}
	if err := empty.Validate(); err == nil {
		t.Error("Validate() accepted an empty bucket")
	}
}

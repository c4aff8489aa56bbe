package vault

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"shard-go/internal/config"
	"shard-go/internal/shard"
)

// fakeS3 is an in-memory bucket honouring If-None-Match on PutObject.
type fakeS3 struct {
	S3API // unused multipart methods

	mu      sync.Mutex
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)

	key := aws.ToString(in.Key)
	if _, ok := f.objects[key]; ok && aws.ToString(in.IfNoneMatch) == "*" {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "object exists"}
	}
	f.objects[key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "no such key"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != "bucket" {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "no such bucket"}
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Vault_KeyLayout(t *testing.T) {
	tests := []struct {
		prefix string
		kind   shard.ArtifactKind
		want   string
	}{
		{"prefix", shard.KindBlob, "prefix/blobs/notes.aes"},
		{"prefix", shard.KindFragments, "prefix/fragments/notes.frg"},
		{"", shard.KindBlob, "blobs/notes.aes"},
		{"a/b/", shard.KindFragments, "a/b/fragments/notes.frg"},
	}

	for _, tt := range tests {
		fake := newFakeS3()
		v := NewS3VaultWithClient("test", "bucket", tt.prefix, fake)
		if err := v.Put(context.Background(), tt.kind, "notes", strings.NewReader("x"), 1); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if _, ok := fake.objects[tt.want]; !ok {
			t.Errorf("prefix %q kind %s: object not stored at %q (have %v)", tt.prefix, tt.kind, tt.want, fake.objects)
		}
	}
}

func TestS3Vault_PutIsConditional(t *testing.T) {
	fake := newFakeS3()
	v := NewS3VaultWithClient("test", "bucket", "", fake)

	if err := v.Put(context.Background(), shard.KindBlob, "notes", strings.NewReader("x"), 1); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if len(fake.puts) != 1 {
		t.Fatalf("PutObject calls = %d, want 1", len(fake.puts))
	}
	if got := aws.ToString(fake.puts[0].IfNoneMatch); got != "*" {
		t.Errorf("IfNoneMatch = %q, want %q", got, "*")
	}
	if got := aws.ToString(fake.puts[0].Bucket); got != "bucket" {
		t.Errorf("Bucket = %q, want %q", got, "bucket")
	}
}

func TestS3Vault_ValidateSetup_MissingBucket(t *testing.T) {
	v := NewS3VaultWithClient("test", "other", "", newFakeS3())
	if err := v.ValidateSetup(context.Background()); err == nil {
		t.Error("ValidateSetup() expected error for missing bucket")
	}
}

func TestIsCode(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), &smithy.GenericAPIError{Code: "NoSuchKey"})
	if !isCode(wrapped, "NotFound", "NoSuchKey") {
		t.Error("isCode() = false for wrapped NoSuchKey")
	}
	if isCode(errors.New("plain"), "NoSuchKey") {
		t.Error("isCode() = true for non-API error")
	}
}

func TestNewS3Vault(t *testing.T) {
	t.Run("requires bucket", func(t *testing.T) {
		if _, err := NewS3Vault(context.Background(), config.VaultConfig{Type: "s3"}); err == nil {
			t.Error("NewS3Vault() expected error without bucket")
		}
	})

	t.Run("static credentials and endpoint", func(t *testing.T) {
		v, err := NewS3Vault(context.Background(), config.VaultConfig{
			Type:              "s3",
			Name:              "minio",
			S3Bucket:          "shares",
			S3Prefix:          "team",
			S3Region:          "us-east-1",
			S3Endpoint:        "http://127.0.0.1:9000",
			S3UsePathStyle:    true,
			S3AccessKeyID:     "AKIDEXAMPLE",
			S3SecretAccessKey: "secret",
		})
		if err != nil {
			t.Fatalf("NewS3Vault() error = %v", err)
		}
		if v.bucket != "shares" || v.prefix != "team" {
			t.Errorf("bucket/prefix = %q/%q, want shares/team", v.bucket, v.prefix)
		}
	})
}

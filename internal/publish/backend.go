// 包 publish：将生成的 PMA 文件与运行清单上传到对象存储（GCS），支持 dry-run
package publish

import (
	"context"
	"errors"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/api/option"
)

type Backend interface {
	Store(ctx context.Context, path string, r io.Reader) (int64, error)
	StoreObject(ctx context.Context, path string, object any) (int64, error)
	Close() error
}

// 编码器池：限制并发压缩时的内存占用
var zstdEncoders chan *zstd.Encoder

func init() {
	const nenc = 4
	zstdEncoders = make(chan *zstd.Encoder, nenc)
	for i := 0; i < nenc; i++ {
		ze, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression), zstd.WithEncoderConcurrency(1))
		if err != nil {
			panic(err)
		}
		zstdEncoders <- ze
	}
}

type CountingWriter struct {
	io.Writer
	N int64
}

func (w *CountingWriter) Write(b []byte) (int, error) {
	n, err := w.Writer.Write(b)
	w.N += int64(n)
	return n, err
}

// encodeObject：msgpack 编码后经 zstd 压缩写入 w
func encodeObject(w io.Writer, object any) (int64, error) {
	cw := &CountingWriter{Writer: w}
	zw := <-zstdEncoders
	defer func() { zstdEncoders <- zw }()
	zw.Reset(cw)
	if err := msgpack.NewEncoder(zw).Encode(object); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return cw.N, nil
}

// DecodeObject 为 StoreObject 的逆过程
func DecodeObject(r io.Reader, out any) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()
	return msgpack.NewDecoder(zr).Decode(out)
}

// DryRunBackend：丢弃数据，仅统计字节数
type DryRunBackend struct{}

func (DryRunBackend) Store(_ context.Context, _ string, r io.Reader) (int64, error) {
	return io.Copy(io.Discard, r)
}

func (DryRunBackend) StoreObject(_ context.Context, _ string, object any) (int64, error) {
	return encodeObject(io.Discard, object)
}

func (DryRunBackend) Close() error { return nil }

type GCSBackend struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// 文档注释：创建 GCS 后端
// 约束：PUBLISH_GCS_CREDENTIALS 为服务账号 JSON；未设置时使用应用默认凭据。
func NewGCSBackend(ctx context.Context, bucketName string) (*GCSBackend, error) {
	if bucketName == "" {
		return nil, errors.New("missing bucket name")
	}
	var opts []option.ClientOption
	if creds := os.Getenv("PUBLISH_GCS_CREDENTIALS"); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSBackend{client: client, bucket: client.Bucket(bucketName)}, nil
}

func (g *GCSBackend) Store(ctx context.Context, path string, r io.Reader) (int64, error) {
	objw := g.bucket.Object(path).NewWriter(ctx)
	objw.ContentType = "text/plain; charset=windows-1252"
	n, err := io.Copy(objw, r)
	if err != nil {
		_ = objw.Close()
		return n, err
	}
	return n, objw.Close()
}

func (g *GCSBackend) StoreObject(ctx context.Context, path string, object any) (int64, error) {
	objw := g.bucket.Object(path).NewWriter(ctx)
	objw.ContentType = "application/zstd"
	n, err := encodeObject(objw, object)
	if err != nil {
		_ = objw.Close()
		return 0, err
	}
	return n, objw.Close()
}

func (g *GCSBackend) Close() error { return g.client.Close() }

package terrain

import (
	"bytes"
	"compress/gzip"
	"io"
)

func gunzip(dst *bytes.Buffer, src []byte) error {
	zr, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return err
	}
	defer zr.Close()
	_, err = io.Copy(dst, zr)
	return err
}

func gzipBytes(dst *bytes.Buffer, src []byte) error {
	zw := gzip.NewWriter(dst)
	if _, err := zw.Write(src); err != nil {
		return err
	}
	return zw.Close()
}

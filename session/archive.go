/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package session

import (
	"bytes"
	"context"
	"io"

	sdksss "github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Archiver implements Archiver against a single S3 object, overwritten on
// every Archive call the way a pusher.FuncClientS3 callback elsewhere in
// this repo defers client construction to the caller rather than holding
// credentials itself — the store never needs more than the plain
// PutObject/GetObject pair a snapshot blob calls for, so this does not
// pull in a multipart-upload engine (pusher.Pusher), which exists for
// large streamed objects, not a single in-memory cbor blob.
type S3Archiver struct {
	Client func() *sdksss.Client
	Bucket string
	Key    string
}

// Archive implements Archiver.
func (a *S3Archiver) Archive(snapshotData []byte) error {
	_, err := a.Client().PutObject(context.Background(), &sdksss.PutObjectInput{
		Bucket: &a.Bucket,
		Key:    &a.Key,
		Body:   bytes.NewReader(snapshotData),
	})
	return err
}

// Restore implements Archiver.
func (a *S3Archiver) Restore() ([]byte, error) {
	out, err := a.Client().GetObject(context.Background(), &sdksss.GetObjectInput{
		Bucket: &a.Bucket,
		Key:    &a.Key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

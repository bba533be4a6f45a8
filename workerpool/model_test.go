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

package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libwp "github.com/nabbar/beng-proxy/workerpool"
)

type fakeJob struct {
	value int
	fail  bool
	done  atomic.Int32
	got   atomic.Int64
	gotE  atomic.Value
}

func (j *fakeJob) Run(_ context.Context) (any, error) {
	if j.fail {
		return nil, errors.New("boom")
	}
	return j.value * 2, nil
}

func (j *fakeJob) Done(result any, err error) {
	j.done.Add(1)
	if err != nil {
		j.gotE.Store(err)
		return
	}
	j.got.Store(int64(result.(int)))
}

var _ = Describe("Pool", func() {
	It("runs jobs on workers and delivers Done via Drain", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := libwp.New(ctx, 2)
		defer p.Close()

		j := &fakeJob{value: 21}
		Expect(p.Submit(ctx, j)).To(BeTrue())

		Eventually(func() bool {
			return p.Drain(ctx)
		}, time.Second).Should(BeTrue())

		Expect(j.done.Load()).To(Equal(int32(1)))
		Expect(j.got.Load()).To(Equal(int64(42)))
	})

	It("delivers an error to Done without panicking the pool", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := libwp.New(ctx, 1)
		defer p.Close()

		j := &fakeJob{fail: true}
		Expect(p.Submit(ctx, j)).To(BeTrue())
		Expect(p.Drain(ctx)).To(BeTrue())

		Expect(j.done.Load()).To(Equal(int32(1)))
		Expect(j.gotE.Load()).ToNot(BeNil())
	})

	It("rejects submissions after Close", func() {
		ctx := context.Background()
		p := libwp.New(ctx, 1)
		p.Close()

		Expect(p.Submit(ctx, &fakeJob{})).To(BeFalse())
	})

	It("reports a size clamped between 1 and the job count", func() {
		p := libwp.New(context.Background(), 0)
		defer p.Close()
		Expect(p.Size()).To(Equal(1))
	})

	It("DefaultSize never returns less than 1 or more than 16", func() {
		n := libwp.DefaultSize(context.Background())
		Expect(n).To(BeNumerically(">=", 1))
		Expect(n).To(BeNumerically("<=", 16))
	})
})

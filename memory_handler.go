package reqstream

import (
	"bytes"
	"sync"
)

var bufPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// MemoryHandler buffers file parts in memory. maxMemSize caps the total
// number of buffered bytes across all parts of one parse; the part that
// would cross the cap is handed, including everything buffered so far, to
// the next handler in the chain.
type MemoryHandler struct {
	maxMemSize DataSize
	used       DataSize

	buf      *bytes.Buffer
	header   Header
	deferred bool
	active   bool
}

func NewMemoryHandler(maxMemSize DataSize) *MemoryHandler {
	return &MemoryHandler{
		maxMemSize: maxMemSize,
	}
}

func (h *MemoryHandler) NewFile(header Header) error {
	buf, ok := bufPool.Get().(*bytes.Buffer)
	if !ok {
		buf = new(bytes.Buffer)
	}
	buf.Reset()

	h.buf = buf
	h.header = header
	h.deferred = false
	h.active = true

	return nil
}

func (h *MemoryHandler) ReceiveDataChunk(chunk []byte) ([]byte, error) {
	if !h.active || h.deferred {
		return chunk, nil
	}

	if h.used+DataSize(h.buf.Len())+DataSize(len(chunk)) > h.maxMemSize {
		// hand everything buffered so far to the next handler along with
		// the overflowing chunk, so it receives the full part
		rest := make([]byte, 0, h.buf.Len()+len(chunk))
		rest = append(rest, h.buf.Bytes()...)
		rest = append(rest, chunk...)
		h.release()
		h.deferred = true

		return rest, nil
	}

	h.buf.Write(chunk)

	return nil, nil
}

func (h *MemoryHandler) FileComplete(size int64) (*UploadedFile, error) {
	if !h.active || h.deferred {
		h.active = false
		return nil, nil
	}

	content := make([]byte, h.buf.Len())
	copy(content, h.buf.Bytes())
	h.used += DataSize(len(content))
	h.release()
	h.active = false

	return NewMemoryUploadedFile(h.header, content), nil
}

func (h *MemoryHandler) UploadComplete() error {
	h.release()
	return nil
}

func (h *MemoryHandler) Abort() error {
	h.release()
	return nil
}

func (h *MemoryHandler) release() {
	if h.buf != nil {
		bufPool.Put(h.buf)
		h.buf = nil
	}
}

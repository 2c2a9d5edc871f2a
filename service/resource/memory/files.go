package memory

import (
	"fmt"
	"sync"

	"github.com/viant/kproc/service/resource"
)

// Files is an in-memory file table with reference counted files and inodes
type Files struct {
	mu        sync.Mutex
	seq       int
	root      *resource.Inode
	fileRefs  map[*resource.File]int
	inodeRefs map[*resource.Inode]int
}

// Root returns the root directory with an extra reference
func (f *Files) Root() *resource.Inode {
	return f.Idup(f.root)
}

// Open opens a new file
func (f *Files) Open(path string) (*resource.File, error) {
	if path == "" {
		return nil, fmt.Errorf("open: empty path")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ret := &resource.File{ID: f.seq, Path: path}
	f.fileRefs[ret] = 1
	return ret, nil
}

// Dup increments file reference count
func (f *Files) Dup(file *resource.File) *resource.File {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fileRefs[file] < 1 {
		panic("filedup")
	}
	f.fileRefs[file]++
	return file
}

// Close decrements file reference count
func (f *Files) Close(file *resource.File) {
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := f.fileRefs[file]
	if refs < 1 {
		panic("fileclose")
	}
	if refs == 1 {
		delete(f.fileRefs, file)
		return
	}
	f.fileRefs[file] = refs - 1
}

// Idup increments inode reference count
func (f *Files) Idup(inode *resource.Inode) *resource.Inode {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inodeRefs[inode]++
	return inode
}

// Iput decrements inode reference count
func (f *Files) Iput(inode *resource.Inode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := f.inodeRefs[inode]
	if refs < 1 {
		panic("iput")
	}
	f.inodeRefs[inode] = refs - 1
}

// OpenFiles returns number of open file descriptions
func (f *Files) OpenFiles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fileRefs)
}

// Refs returns file reference count
func (f *Files) Refs(file *resource.File) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fileRefs[file]
}

// RootRefs returns the root inode reference count
func (f *Files) RootRefs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inodeRefs[f.root]
}

// NewFiles creates a file table
func NewFiles() *Files {
	root := &resource.Inode{ID: 1, Path: "/"}
	return &Files{
		root:      root,
		fileRefs:  make(map[*resource.File]int),
		inodeRefs: map[*resource.Inode]int{root: 1},
	}
}

var _ resource.Files = (*Files)(nil)

package io

import (
	"io/fs"
)

// Rom holds a binary program image.
type Rom struct {
	Data []byte
}

// Load reads the image from a file.
func (rom *Rom) Load(filesys fs.FS, name string) (err error) {
	data, err := fs.ReadFile(filesys, name)
	if err != nil {
		return
	}

	if len(data) == 0 {
		err = &fs.PathError{Op: "load", Path: name, Err: ErrRomEmpty}
		return
	}

	rom.Data = data
	return
}

// Save writes the image to a file.
func (rom *Rom) Save(filesys CreateFS, name string) (err error) {
	file, err := filesys.Create(name)
	if err != nil {
		return
	}

	_, err = file.Write(rom.Data)
	if err != nil {
		file.Close()
		return
	}

	err = file.Close()
	return
}

// Len returns the size of the image in bytes.
func (rom *Rom) Len() int {
	return len(rom.Data)
}

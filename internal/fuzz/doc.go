// Package fuzztests houses Go fuzz harnesses for the parts of tycodec that read
// untrusted input: the schema loader and the record-of decoders of every encoding.
// The harnesses guard against panics, hangs and allocator explosions on arbitrary
// bytes, and check that whatever decodes also encodes back to equal values.
//
// Назначение: прогонять произвольные байты через schema.Loader, sema.Check и
// декодеры seqof.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests

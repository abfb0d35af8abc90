// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package function

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/satori/go.uuid"
	"github.com/solisdb/solisdb/sdb"
)

// MD5/SHA256 are fixed, standardized digests with no behavioral variance
// across implementations, so the standard library crypto packages are used
// directly rather than reaching for a pack dependency that adds nothing here.
func registerCrypto(r *Registry) {
	r.Register("MD5", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "MD5")
		if err != nil {
			return sdb.NullValue(), err
		}
		sum := md5.Sum([]byte(s))
		return sdb.StringValue(hex.EncodeToString(sum[:])), nil
	})

	r.Register("SHA256", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "SHA256")
		if err != nil {
			return sdb.NullValue(), err
		}
		sum := sha256.Sum256([]byte(s))
		return sdb.StringValue(hex.EncodeToString(sum[:])), nil
	})

	r.Register("BASE64_ENCODE", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "BASE64_ENCODE")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.StringValue(base64.StdEncoding.EncodeToString([]byte(s))), nil
	})

	r.Register("BASE64_DECODE", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "BASE64_DECODE")
		if err != nil {
			return sdb.NullValue(), err
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return sdb.NullValue(), nil
		}
		return sdb.StringValue(string(b)), nil
	})

	r.Register("UUIDV4", Fixed(0), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.StringValue(uuid.NewV4().String()), nil
	})

	// satori/go.uuid v1.2.0 predates RFC 9562 v7 support, so the generator is
	// hand-rolled here: 48-bit millisecond timestamp, version/variant bits set
	// per the RFC, remaining bits copied from the random bytes of a fresh
	// uuid.NewV4() value.
	r.Register("UUIDV7", Fixed(0), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.StringValue(newUUIDv7()), nil
	})
}

func newUUIDv7() string {
	var b [16]byte
	ms := uint64(nowUnixMilli())
	b[0] = byte(ms >> 40)
	b[1] = byte(ms >> 32)
	b[2] = byte(ms >> 24)
	b[3] = byte(ms >> 16)
	b[4] = byte(ms >> 8)
	b[5] = byte(ms)

	rnd := uuid.NewV4()
	copy(b[6:], rnd.Bytes()[6:])
	b[6] = (b[6] & 0x0f) | 0x70
	b[8] = (b[8] & 0x3f) | 0x80

	var out [36]byte
	hex.Encode(out[0:8], b[0:4])
	out[8] = '-'
	hex.Encode(out[9:13], b[4:6])
	out[13] = '-'
	hex.Encode(out[14:18], b[6:8])
	out[18] = '-'
	hex.Encode(out[19:23], b[8:10])
	out[23] = '-'
	hex.Encode(out[24:36], b[10:16])
	return string(out[:])
}

func nowUnixMilli() int64 {
	return timeNowFunc().UnixNano() / int64(1e6)
}

// overridable indirection kept tiny; real wall clock comes from datefn.go's
// shared clock so tests can substitute a fixed time if ever needed.
var timeNowFunc = realNow

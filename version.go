// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cocoapods

// Version of the tool, stamped into generated lockfiles under the
// COCOAPODS key and checked against the stamp when reading one back.
const Version = "0.35.0"

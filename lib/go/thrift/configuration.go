/*
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements. See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership. The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License. You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied. See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package thrift

import "fmt"

// DEFAULT_MAX_MESSAGE_SIZE bounds every decoded size (string/binary
// length, list/set/map element count) to the conservative limit spec'd
// for the compact protocol: 0x7FFF. It is exposed as a configuration
// default rather than a hardcoded constant so callers fronting larger
// messages can opt into a bigger bound explicitly.
const DEFAULT_MAX_MESSAGE_SIZE = 0x7FFF

// TConfiguration carries the handful of knobs a protocol/transport
// pair needs at construction time. Fields are accessed through
// methods, not directly, so a nil *TConfiguration degrades to the
// documented defaults instead of panicking.
type TConfiguration struct {
	MaxMessageSize int32

	// noPropagation marks a TConfiguration created by one of the
	// Deprecated constructors (NewTCompactProtocol, etc.) that predate
	// TConfiguration. PropagateTConfiguration refuses to push settings
	// derived from such a zero-value configuration down into a
	// transport the caller already configured explicitly.
	noPropagation bool
}

func (c *TConfiguration) GetMaxMessageSize() int32 {
	if c == nil || c.MaxMessageSize <= 0 {
		return DEFAULT_MAX_MESSAGE_SIZE
	}
	return c.MaxMessageSize
}

// TConfigurationSetter is implemented by anything willing to accept a
// shared TConfiguration pushed down from a protocol factory: typically
// a transport layered underneath the protocol.
type TConfigurationSetter interface {
	SetTConfiguration(*TConfiguration)
}

// PropagateTConfiguration pushes conf into v if v opts into
// TConfigurationSetter and conf isn't a legacy zero-propagation
// placeholder.
func PropagateTConfiguration(v interface{}, conf *TConfiguration) {
	if conf == nil || conf.noPropagation {
		return
	}
	if setter, ok := v.(TConfigurationSetter); ok {
		setter.SetTConfiguration(conf)
	}
}

// checkSizeForProtocol is the single choke point for the §4.6 size
// validation invariant: every decoded size (string length, collection
// element count, or an element-count * min-element-size product) is
// rejected if negative or beyond the configured bound.
func checkSizeForProtocol(size int32, cfg *TConfiguration) error {
	if size < 0 {
		return NewTProtocolExceptionWithType(NEGATIVE_SIZE, fmt.Errorf("negative size: %d", size))
	}
	if size > cfg.GetMaxMessageSize() {
		return NewTProtocolExceptionWithType(SIZE_LIMIT, fmt.Errorf("size %d exceeds max %d", size, cfg.GetMaxMessageSize()))
	}
	return nil
}

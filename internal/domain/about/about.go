// Package about renders the generated metadata file that carries the
// release version and build tag into the packaged project.
package about

import "fmt"

// Metadata holds the static project fields written into the about file.
type Metadata struct {
	Title     string
	Summary   string
	URI       string
	Author    string
	Email     string
	License   string
	Copyright string
}

// Default returns the Warehouse project metadata.
func Default() Metadata {
	return Metadata{
		Title:     "warehouse",
		Summary:   "Next Generation Python Package Repository",
		URI:       "https://github.com/dstufft/warehouse",
		Author:    "Donald Stufft",
		Email:     "donald@stufft.io",
		License:   "Apache License, Version 2.0",
		Copyright: "Copyright 2013 Donald Stufft",
	}
}

const template = `# %s
#
# Licensed under the Apache License, Version 2.0 (the "License");
# you may not use this file except in compliance with the License.
# You may obtain a copy of the License at
#
# http://www.apache.org/licenses/LICENSE-2.0
#
# Unless required by applicable law or agreed to in writing, software
# distributed under the License is distributed on an "AS IS" BASIS,
# WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
# See the License for the specific language governing permissions and
# limitations under the License.
from __future__ import absolute_import, division, print_function
from __future__ import unicode_literals

# This file is automatically generated, do not edit it


__all__ = [
    "__title__", "__summary__", "__uri__", "__version__",
    "__author__", "__email__", "__license__", "__copyright__",
]

__title__ = "%s"
__summary__ = "%s"
__uri__ = "%s"

__version__ = "%s"
__build__ = "%s"

__author__ = "%s"
__email__ = "%s"

__license__ = "%s"
__copyright__ = "%s"
`

// Render produces the about file contents for the given version and
// build tag. The output is deterministic for fixed inputs.
func Render(m Metadata, version, build string) string {
	return fmt.Sprintf(template,
		m.Copyright,
		m.Title,
		m.Summary,
		m.URI,
		version,
		build,
		m.Author,
		m.Email,
		m.License,
		m.Copyright,
	)
}

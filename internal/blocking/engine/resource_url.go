/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package engine

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var urlAttributes = []string{"src", "data-src", "href", "data"}

// ExtractResourceURL returns the URL a resource tag loads. Script tags without a src yield their
// inline body. Input that is not markup is returned trimmed, as a bare URL.
func ExtractResourceURL(resourceTag string) string {

	trimmed := strings.TrimSpace(resourceTag)
	if !strings.HasPrefix(trimmed, "<") {
		return trimmed
	}

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(trimmed), context)
	if err != nil {
		return ""
	}
	for _, node := range nodes {
		if element := firstElement(node); element != nil {
			return resourceOf(element)
		}
	}
	return ""
}

func firstElement(node *html.Node) *html.Node {
	if node.Type == html.ElementNode {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if element := firstElement(child); element != nil {
			return element
		}
	}
	return nil
}

func resourceOf(element *html.Node) string {

	for _, name := range urlAttributes {
		for _, attr := range element.Attr {
			if attr.Key == name && strings.TrimSpace(attr.Val) != "" {
				return strings.TrimSpace(attr.Val)
			}
		}
	}
	if element.DataAtom == atom.Script {
		var body strings.Builder
		for child := element.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.TextNode {
				body.WriteString(child.Data)
			}
		}
		return strings.TrimSpace(body.String())
	}
	return ""
}
